package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"assessment-service/internal/domain"
)

// Response is the JSON envelope of every REST reply.
type Response struct {
	Data  interface{} `json:"data"`
	Error *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    domain.ErrCode    `json:"code"`
	Message string            `json:"message"`
	Detail  string            `json:"detail,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var statusByCode = map[domain.ErrCode]int{
	domain.CodeValidation:       http.StatusBadRequest,
	domain.CodeInvalidAnswer:    http.StatusBadRequest,
	domain.CodeNoAnswers:        http.StatusBadRequest,
	domain.CodeNotFound:         http.StatusNotFound,
	domain.CodeQuestionNotFound: http.StatusNotFound,
	domain.CodeExamNotFound:     http.StatusNotFound,
	domain.CodeAlreadyAnswered:  http.StatusConflict,
	domain.CodePermissionDenied: http.StatusForbidden,
	domain.CodeDatabase:         http.StatusInternalServerError,
	domain.CodeCalculation:      http.StatusInternalServerError,
	domain.CodeUnknown:          http.StatusInternalServerError,
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code domain.ErrCode) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// MessageFor returns the user-facing message of code in lang.
func MessageFor(code domain.ErrCode, lang domain.Language) string {
	return domain.Message(domain.MessageKey(code), lang)
}

// requestLanguage picks the UI language from ?lang= or Accept-Language. Arabic is the default.
func requestLanguage(c *gin.Context) domain.Language {
	raw := strings.ToLower(c.Query("lang"))
	if raw == "" {
		raw = strings.ToLower(c.GetHeader("Accept-Language"))
	}
	if raw == string(domain.LanguageEnglish) || strings.HasPrefix(raw, "en") {
		return domain.LanguageEnglish
	}
	return domain.LanguageArabic
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Data: data})
}

func fail(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	body := &ErrorBody{Code: code, Message: MessageFor(code, requestLanguage(c))}
	if e, ok := asDomainError(err); ok {
		body.Detail = e.Message
	}
	c.AbortWithStatusJSON(StatusFor(code), Response{Error: body})
}

func failFields(c *gin.Context, fields map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Error: &ErrorBody{
		Code:    domain.CodeValidation,
		Message: MessageFor(domain.CodeValidation, requestLanguage(c)),
		Fields:  fields,
	}})
}
