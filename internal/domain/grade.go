package domain

import "fmt"

// Grade is a letter grade with presentation hints.
type Grade struct {
	Grade string `json:"grade"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// gradeLadder is evaluated high to low; the breakpoints are fixed.
var gradeLadder = []struct {
	min   int
	grade Grade
}{
	{90, Grade{Grade: "A+", Label: "ممتاز", Color: "emerald"}},
	{80, Grade{Grade: "A", Label: "جيد جداً", Color: "green"}},
	{70, Grade{Grade: "B", Label: "جيد", Color: "blue"}},
	{60, Grade{Grade: "C", Label: "مقبول", Color: "yellow"}},
	{50, Grade{Grade: "D", Label: "ضعيف", Color: "orange"}},
}

var gradeFail = Grade{Grade: "F", Label: "راسب", Color: "red"}

// GradeFor maps a whole percentage to its grade.
func GradeFor(percentage int) Grade {
	for _, step := range gradeLadder {
		if percentage >= step.min {
			return step.grade
		}
	}
	return gradeFail
}

// GradeRank orders grades; higher is better. Unknown grades rank below F.
func GradeRank(g string) int {
	if g == gradeFail.Grade {
		return 0
	}
	for i, step := range gradeLadder {
		if step.grade.Grade == g {
			return len(gradeLadder) - i
		}
	}
	return -1
}

// FormatScore renders "score / max (pct%)".
func FormatScore(score, max float64, percentage int) string {
	return fmt.Sprintf("%s / %s (%d%%)", trimFloat(score), trimFloat(max), percentage)
}

// FormatDuration renders whole seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ResultMessage is the encouragement line shown with a result.
func ResultMessage(passed bool, percentage int) string {
	if passed {
		switch {
		case percentage >= 90:
			return "ممتاز! أداء رائع"
		case percentage >= 80:
			return "جيد جداً! استمر في التقدم"
		case percentage >= 70:
			return "جيد! يمكنك التحسن أكثر"
		default:
			return "ناجح! حاول تحسين درجتك"
		}
	}
	if percentage >= 40 {
		return "قريب من النجاح! حاول مرة أخرى"
	}
	return "تحتاج للمزيد من المذاكرة"
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
