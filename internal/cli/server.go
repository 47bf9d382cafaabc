package cli

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examprep-quiz/internal/app"
	"examprep-quiz/internal/config"
	"examprep-quiz/internal/domain"
	"examprep-quiz/internal/infra/file"
	"examprep-quiz/internal/infra/memory"
	pgloader "examprep-quiz/internal/infra/postgres"
	redisinfra "examprep-quiz/internal/infra/redis"
	"examprep-quiz/internal/infra/sqlite"
	transport "examprep-quiz/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBank())
	switch {
	case pool != nil:
		loader = pgloader.NewBankLoader(pool)
	case cfg.Quiz.BankPath != "":
		loader = file.NewBankLoader(cfg.Quiz.BankPath)
	}

	bankTTL := config.TTLDuration(cfg.Quiz.BankTTL, 10*time.Minute)
	var bankRepo app.BankRepository
	if redisClient != nil {
		bankRepo = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		bankRepo = memory.NewBankRepository(loader, bankTTL)
	}

	// Saved answers must outlive a browser tab, so the default TTL is generous.
	stateTTL := config.TTLDuration(cfg.Redis.TTL, 7*24*time.Hour)
	var stateStore app.StateStore
	var sessionStore app.SessionRepository
	switch {
	case redisClient != nil:
		stateStore = redisinfra.NewStateStore(redisClient, stateTTL)
		sessionStore = redisinfra.NewSessionStore(redisClient, stateTTL)
	case cfg.SQLite.Path != "":
		sqliteStore, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer sqliteStore.Close()
		stateStore = sqliteStore
		sessionStore = memory.NewSessionStore()
	default:
		stateStore = memory.NewStateStore()
		sessionStore = memory.NewSessionStore()
	}

	service := app.NewQuizService(sessionStore, bankRepo, stateStore, app.ServiceOptions{
		QuestionsPerSection: cfg.QuestionsPerSection(),
		NewTicker:           app.NewRealTicker,
		Logger:              logger,
	})

	secret, err := cookieSecret(cfg)
	if err != nil {
		return err
	}
	wsHandler := transport.NewWSHandler(service, transport.NewCookieStore(secret))
	resultsHandler := transport.NewResultsHandler(service, cfg.ExportFileName())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("GET /sessions/{id}/results", resultsHandler.ServeResults)
	mux.HandleFunc("GET /sessions/{id}/export", resultsHandler.ServeExport)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// cookieSecret returns the configured signing key, or a random one that
// invalidates cookies on every restart.
func cookieSecret(cfg config.Config) ([]byte, error) {
	if cfg.Server.CookieSecret != "" {
		return []byte(cfg.Server.CookieSecret), nil
	}
	log.Printf("server.cookieSecret not set, using an ephemeral key")
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate cookie key: %w", err)
	}
	return key, nil
}

// sampleBank is a minimal bank for running without a bank file or database;
// point quiz.bankPath at a YAML bank for real content.
func sampleBank() []domain.Section {
	return []domain.Section{
		{
			Title: "HTML & CSS",
			Questions: []domain.Question{
				{
					ID:            "html-1",
					Prompt:        "Which HTML5 semantic element is best for containing navigation links?",
					Type:          domain.TypeMultipleChoice,
					Options:       []string{"<div>", "<nav>", "<section>", "<header>"},
					CorrectAnswer: "<nav>",
					Explanation:   "The <nav> element is specifically designed for navigation links and provides semantic meaning.",
				},
				{
					ID:            "html-4",
					Prompt:        `What is the purpose of the "alt" attribute in img tags?`,
					Type:          domain.TypeShortText,
					CorrectAnswer: "accessibility",
					Explanation:   "The alt attribute provides alternative text for screen readers and when images fail to load.",
				},
			},
		},
		{
			Title: "JavaScript & DOM",
			Questions: []domain.Question{
				{
					ID:            "js-1",
					Prompt:        "What will this code output?",
					Type:          domain.TypeOutputTracing,
					Code:          "console.log(typeof null);",
					CorrectAnswer: "object",
					Explanation:   "typeof null returns 'object' due to a historical quirk of JavaScript.",
				},
			},
		},
	}
}
