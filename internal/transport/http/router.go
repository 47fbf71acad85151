// Package http exposes the assessment use cases over REST (gin) and drives quiz sessions over websockets.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handlers struct {
	Exams     *ExamHandler
	Questions *QuestionHandler
	Attempts  *AttemptHandler
	WS        *WSHandler
}

// NewRouter wires every route. An empty origins list allows all origins.
func NewRouter(h Handlers, log zerolog.Logger, origins []string) *gin.Engine {
	setupValidator()

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	corsConfig := cors.DefaultConfig()
	if len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept-Language"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	exams := api.Group("/exams")
	{
		exams.POST("", h.Exams.Create)
		exams.GET("", h.Exams.List)
		exams.GET("/stats", h.Exams.Stats)
		exams.GET("/:id", h.Exams.Get)
		exams.POST("/:id/publish", h.Exams.Publish)
		exams.POST("/:id/archive", h.Exams.Archive)
		exams.POST("/:id/score", h.Exams.Score)
	}
	if h.Questions != nil {
		questions := api.Group("/questions")
		questions.POST("", h.Questions.Create)
		questions.POST("/batch", h.Questions.CreateBatch)
		questions.GET("", h.Questions.List)
		questions.GET("/stats", h.Questions.Stats)
		questions.GET("/groups", h.Questions.Groups)
		questions.DELETE("/groups/:groupId", h.Questions.DeleteGroup)
		questions.GET("/:id", h.Questions.Get)
		questions.DELETE("/:id", h.Questions.Delete)
	}
	attempts := api.Group("/attempts/:attemptId")
	{
		attempts.POST("/answers", h.Attempts.SubmitAnswer)
		attempts.GET("/answers/:questionId", h.Attempts.GetAnswer)
		attempts.DELETE("", h.Attempts.Clear)
	}

	if h.WS != nil {
		r.GET("/ws", gin.WrapF(h.WS.ServeWS))
	}
	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
