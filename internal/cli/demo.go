package cli

import (
	"time"

	"assessment-service/internal/domain"
)

// demoExam seeds the in-memory repository when no database is configured.
func demoExam() domain.Exam {
	q := func(id string, qt domain.QuestionType, text string, opts []domain.Option, correct string, points float64) domain.Question {
		return domain.Question{
			ID: id, Type: qt, Text: domain.LangText{"ar": text}, Options: opts,
			CorrectOptionID: correct, Points: points, Difficulty: domain.DifficultyMedium, Active: true,
		}
	}
	opt := func(id, text string) domain.Option {
		return domain.Option{ID: id, Text: domain.LangText{"ar": text}}
	}

	blocks := []domain.Block{
		{
			ID:    "poetry",
			Kind:  domain.BlockPoetryText,
			Title: domain.LangText{"ar": "النص الشعري"},
			Reference: &domain.Reference{
				Kind:   domain.ReferencePoetry,
				Author: "المتنبي",
				Verses: []domain.Verse{{First: "على قدر أهل العزم تأتي العزائم", Second: "وتأتي على قدر الكرام المكارم"}},
			},
			Questions: []domain.Question{
				q("p1", domain.QuestionMCQ, "ما الفكرة الرئيسة في البيت؟",
					[]domain.Option{opt("p1a", "الفخر بالنسب"), opt("p1b", "العزائم على قدر أصحابها"), opt("p1c", "وصف الطبيعة")}, "p1b", 4),
			},
		},
		{
			ID:    "grammar",
			Kind:  domain.BlockGrammar,
			Title: domain.LangText{"ar": "القواعد"},
			Subsections: []domain.Subsection{
				{Type: domain.QuestionMCQ, Questions: []domain.Question{
					q("g1", domain.QuestionMCQ, "ما إعراب (الكرامِ)؟",
						[]domain.Option{opt("g1a", "مضاف إليه مجرور"), opt("g1b", "فاعل مرفوع")}, "g1a", 3),
				}},
				{Type: domain.QuestionTrueFalse, Questions: []domain.Question{
					q("g2", domain.QuestionTrueFalse, "(العزائم) فاعل مرفوع.",
						[]domain.Option{opt("true", "صح"), opt("false", "خطأ")}, "true", 3),
				}},
			},
		},
	}
	now := time.Now().UTC()
	return domain.Exam{
		ID:           "demo-exam",
		Title:        "اختبار تجريبي: المتنبي",
		Language:     domain.LanguageArabic,
		TotalPoints:  domain.SumPoints(blocks),
		PassingScore: 6,
		Blocks:       blocks,
		Settings:     domain.DefaultSettings(),
		Status:       domain.ExamStatusPublished,
		CreatedBy:    "system",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
