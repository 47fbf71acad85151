package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

func sampleExam() domain.Exam {
	return domain.Exam{
		ID:           "exam-1",
		Title:        "Arabic grammar",
		Language:     domain.LanguageArabic,
		TotalPoints:  10,
		PassingScore: 5,
		Status:       domain.ExamStatusDraft,
		CreatedBy:    "teacher-1",
		CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Blocks: []domain.Block{{
			ID: "b1",
			Questions: []domain.Question{
				{
					ID: "q1", Type: domain.QuestionMCQ, Text: domain.LangText{"ar": "ما إعراب (الطالبُ)؟"},
					Options:         []domain.Option{{ID: "o1"}, {ID: "o2"}},
					CorrectOptionID: "o2", Points: 6,
				},
				{
					ID: "q2", Type: domain.QuestionTrueFalse, Text: domain.LangText{"ar": "الفاعل مرفوع"},
					Options:         []domain.Option{{ID: "true"}, {ID: "false"}},
					CorrectOptionID: "true", Points: 4,
				},
			},
		}},
	}
}

type fixture struct {
	exams     *memory.ExamRepository
	publisher *recordingPublisher
	router    *gin.Engine
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	exams := memory.NewExamRepository(sampleExam())
	cache := memory.NewExamCache(exams, time.Minute)
	scorer := app.NewCalculateScore(log)
	submit := app.NewSubmitAnswer(memory.NewAnswerLedger())
	pub := &recordingPublisher{}

	sessions := app.NewSessionService(memory.NewSessionStore(), cache, scorer, log).WithPublisher(pub)
	router := NewRouter(Handlers{
		Exams:     NewExamHandler(exams, cache, app.NewCreateExam(exams, log), scorer, submit, log).WithPublisher(pub),
		Questions: NewQuestionHandler(memory.NewQuestionRepository()),
		Attempts:  NewAttemptHandler(cache, submit),
		WS:        NewWSHandler(sessions, log),
	}, log, nil)
	return &fixture{exams: exams, publisher: pub, router: router}
}
