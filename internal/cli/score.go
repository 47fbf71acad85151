package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

type answerFileEntry struct {
	QuestionID       string        `json:"questionId"`
	Answer           domain.Answer `json:"answer"`
	TimeSpentSeconds *int          `json:"timeSpentSeconds,omitempty"`
}

type scoreReport struct {
	app.CalculateScoreOutput
	Summary  string `json:"summary"`
	Message  string `json:"message"`
	Duration string `json:"duration"`
}

// NewScoreCmd grades an answer file against an exam file offline.
func NewScoreCmd() *cobra.Command {
	var (
		examPath    string
		answersPath string
		elapsed     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Grade an answers file against an exam file and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			var exam domain.Exam
			if err := readJSON(examPath, &exam); err != nil {
				return err
			}
			var entries []answerFileEntry
			if err := readJSON(answersPath, &entries); err != nil {
				return err
			}

			report, err := scoreOffline(cmd, exam, entries, elapsed)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&examPath, "exam", "", "path to the exam JSON")
	cmd.Flags().StringVar(&answersPath, "answers", "", "path to the answers JSON")
	cmd.Flags().DurationVar(&elapsed, "elapsed", 0, "time the learner spent on the attempt")
	_ = cmd.MarkFlagRequired("exam")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func scoreOffline(cmd *cobra.Command, exam domain.Exam, entries []answerFileEntry, elapsed time.Duration) (scoreReport, error) {
	ctx := cmd.Context()
	submit := app.NewSubmitAnswer(memory.NewAnswerLedger())

	answers := make([]app.QuestionAnswer, 0, len(entries))
	for _, e := range entries {
		var question *domain.Question
		if q, ok := exam.FindQuestion(e.QuestionID); ok {
			question = &q
		}
		out, err := submit.Execute(ctx, app.SubmitAnswerInput{
			QuestionID:       e.QuestionID,
			Answer:           e.Answer,
			TimeSpentSeconds: e.TimeSpentSeconds,
		}, question)
		if err != nil {
			return scoreReport{}, fmt.Errorf("question %s: %w", e.QuestionID, err)
		}
		answers = append(answers, out.QuestionAnswer())
	}

	completed := time.Now()
	out, err := app.NewCalculateScore(zerolog.Nop()).Execute(app.CalculateScoreInput{
		ExamID:      exam.ID,
		Answers:     answers,
		StartedAt:   completed.Add(-elapsed),
		CompletedAt: &completed,
	}, &exam)
	if err != nil {
		return scoreReport{}, err
	}
	return scoreReport{
		CalculateScoreOutput: out,
		Summary:              out.Summary(),
		Message:              out.Message(),
		Duration:             domain.FormatDuration(out.TotalTimeSeconds),
	}, nil
}

func readJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
