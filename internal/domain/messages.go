package domain

// MessageKey names an entry of the user-facing message catalog. Error codes are keys as well.
type MessageKey string

const MsgExamCreated MessageKey = "EXAM_CREATED"

var catalog = map[MessageKey]LangText{
	MessageKey(CodeValidation):       {"ar": "البيانات المدخلة غير صحيحة", "en": "The submitted data is invalid"},
	MessageKey(CodeNotFound):         {"ar": "العنصر المطلوب غير موجود", "en": "The requested resource was not found"},
	MessageKey(CodeDatabase):         {"ar": "حدث خطأ في قاعدة البيانات", "en": "A database error occurred"},
	MessageKey(CodePermissionDenied): {"ar": "ليس لديك صلاحية لهذا الإجراء", "en": "You are not allowed to do this"},
	MessageKey(CodeUnknown):          {"ar": "حدث خطأ غير متوقع", "en": "An unexpected error occurred"},
	MessageKey(CodeQuestionNotFound): {"ar": "السؤال غير موجود", "en": "Question not found"},
	MessageKey(CodeInvalidAnswer):    {"ar": "الإجابة غير صالحة", "en": "The answer is invalid"},
	MessageKey(CodeAlreadyAnswered):  {"ar": "تمت الإجابة على هذا السؤال مسبقاً", "en": "This question has already been answered"},
	MessageKey(CodeExamNotFound):     {"ar": "الاختبار غير موجود", "en": "Exam not found"},
	MessageKey(CodeNoAnswers):        {"ar": "لا توجد إجابات لحسابها", "en": "There are no answers to score"},
	MessageKey(CodeCalculation):      {"ar": "تعذر حساب النتيجة", "en": "The score could not be calculated"},
	MsgExamCreated:                   {"ar": "تم إنشاء الامتحان بنجاح", "en": "Exam created successfully"},
}

// Message returns the catalog text of key in lang. Unknown keys fall back to the UNKNOWN_ERROR text.
func Message(key MessageKey, lang Language) string {
	t, ok := catalog[key]
	if !ok {
		t = catalog[MessageKey(CodeUnknown)]
	}
	return t.Text(lang.Code())
}
