package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"assessment-service/internal/domain"
)

func TestQuestionBank(t *testing.T) {
	f := newFixture()

	code, env := do(t, f, http.MethodPost, "/api/questions/batch", map[string]interface{}{
		"questions": []map[string]interface{}{
			{
				"type": "mcq", "text": map[string]string{"ar": "ما نوع (كتب)؟"},
				"options":  []map[string]interface{}{{"id": "o1"}, {"id": "o2", "isCorrect": true}},
				"lessonId": "l1", "groupId": "g1", "tags": []string{"nahw"},
				"reference": map[string]interface{}{"kind": "reading", "text": "نص القراءة"},
			},
			{"type": "essay", "text": map[string]string{"ar": "اكتب فقرة"}, "lessonId": "l1", "groupId": "g1", "points": 4},
		},
	})
	if code != http.StatusCreated {
		t.Fatalf("batch create: %d %+v", code, env.Error)
	}
	var created []domain.Question
	_ = json.Unmarshal(env.Data, &created)
	if len(created) != 2 || created[0].CorrectOptionID != "o2" || created[0].Points != 1 || !created[0].Active {
		t.Fatalf("expected defaults applied, got %+v", created)
	}

	_, env = do(t, f, http.MethodGet, "/api/questions?lessonId=l1&tags=nahw", nil)
	var list questionList
	_ = json.Unmarshal(env.Data, &list)
	if list.Total != 1 || list.Items[0].ID != created[0].ID {
		t.Fatalf("unexpected filtered list %+v", list)
	}

	_, env = do(t, f, http.MethodGet, "/api/questions/groups?lessonId=l1", nil)
	var groups []domain.QuestionGroup
	_ = json.Unmarshal(env.Data, &groups)
	if len(groups) != 1 || groups[0].QuestionsCount != 2 || groups[0].TotalPoints != 5 {
		t.Fatalf("unexpected groups %+v", groups)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/questions/groups/g1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete group: %d", rec.Code)
	}
	if code, _ := do(t, f, http.MethodGet, "/api/questions/"+created[1].ID, nil); code != http.StatusNotFound {
		t.Fatalf("expected question removed with its group, got %d", code)
	}
}

func TestQuestionBatchIsAtomic(t *testing.T) {
	f := newFixture()
	code, env := do(t, f, http.MethodPost, "/api/questions/batch", map[string]interface{}{
		"questions": []map[string]interface{}{
			{"type": "essay", "text": map[string]string{"ar": "سؤال صحيح"}},
			{"type": "mcq", "text": map[string]string{"ar": "بلا خيارات"}, "correctOptionId": "missing"},
		},
	})
	if code != http.StatusBadRequest || env.Error.Code != domain.CodeValidation {
		t.Fatalf("expected validation failure, got %d", code)
	}
	_, env = do(t, f, http.MethodGet, "/api/questions/stats", nil)
	var st domain.QuestionStats
	_ = json.Unmarshal(env.Data, &st)
	if st.Total != 0 {
		t.Fatalf("partial batch persisted: %+v", st)
	}
}

func TestQuestionCreateRequiresText(t *testing.T) {
	f := newFixture()
	code, env := do(t, f, http.MethodPost, "/api/questions", map[string]interface{}{"type": "essay"})
	if code != http.StatusBadRequest || env.Error.Fields["text"] == "" {
		t.Fatalf("expected field error on text, got %d %+v", code, env.Error)
	}
}
