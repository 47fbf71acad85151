package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"assessment-service/internal/app"
	"assessment-service/internal/config"
	"assessment-service/internal/infra/amqp"
	"assessment-service/internal/infra/memory"
	"assessment-service/internal/infra/postgres"
	redisstore "assessment-service/internal/infra/redis"
	"assessment-service/internal/logger"
	transport "assessment-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores holds the adapters picked from configuration.
type stores struct {
	exams     app.ExamRepository
	questions app.QuestionRepository
	cache     app.ExamCache
	ledger    app.AnswerLedger
	sessions  app.SessionRepository
	publisher app.ResultPublisher
	closers   []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores uses Postgres, Redis and AMQP when configured and in-memory adapters otherwise.
func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (*stores, error) {
	s := &stores{}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		s.exams = postgres.NewExamRepository(pool)
		s.questions = postgres.NewQuestionRepository(pool)
	} else {
		log.Warn().Msg("postgres not configured, using in-memory repositories with demo content")
		s.exams = memory.NewExamRepository(demoExam())
		s.questions = memory.NewQuestionRepository()
	}

	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.cache = redisstore.NewExamCache(client, s.exams, cacheTTL, log)
		s.ledger = redisstore.NewAnswerLedger(client, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
		s.sessions = redisstore.NewSessionStore(client, config.TTLDuration(cfg.Session.TTL, 2*time.Hour))
	} else {
		s.cache = memory.NewExamCache(s.exams, cacheTTL)
		s.ledger = memory.NewAnswerLedger()
		s.sessions = memory.NewSessionStore()
	}

	if cfg.AMQP.URL != "" {
		pub, err := amqp.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = pub.Close() })
		s.publisher = pub
	} else {
		log.Info().Msg("amqp not configured, scored attempts will not be published")
	}
	return s, nil
}

func newRouter(s *stores, log zerolog.Logger) http.Handler {
	scorer := app.NewCalculateScore(log)
	submit := app.NewSubmitAnswer(s.ledger)
	sessions := app.NewSessionService(s.sessions, s.cache, scorer, log)
	exams := transport.NewExamHandler(s.exams, s.cache, app.NewCreateExam(s.exams, log), scorer, submit, log)
	if s.publisher != nil {
		sessions.WithPublisher(s.publisher)
		exams.WithPublisher(s.publisher)
	}
	return transport.NewRouter(transport.Handlers{
		Exams:     exams,
		Questions: transport.NewQuestionHandler(s.questions),
		Attempts:  transport.NewAttemptHandler(s.cache, submit),
		WS:        transport.NewWSHandler(sessions, log),
	}, log, nil)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	s, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close()

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      newRouter(s, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting assessment service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
