package main

import (
	"context"
	"crypto/tls"
	_ "embed"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/attento-ai/interview-platform/internal/api/router"
	"github.com/attento-ai/interview-platform/internal/chatguard"
	appconfig "github.com/attento-ai/interview-platform/internal/config"
	"github.com/attento-ai/interview-platform/internal/interview"
	"github.com/attento-ai/interview-platform/internal/leads"
	"github.com/attento-ai/interview-platform/internal/observability/metrics"
	"github.com/attento-ai/interview-platform/internal/webchat"
	"github.com/attento-ai/interview-platform/pkg/logging"
)

//go:embed widget.js
var widgetJS []byte

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting interview-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	topics, err := parseTopics(cfg.InterviewTopicsJSON)
	if err != nil {
		logger.Error("invalid INTERVIEW_TOPICS_JSON", "error", err)
		os.Exit(1)
	}
	if len(topics) == 0 {
		logger.Warn("no interview topics configured, using demo plan")
		topics = demoTopics()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis not available", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	llm, err := interview.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = llm.Close() }()

	m := metrics.NewInterviewMetrics(nil)

	machine := interview.NewMachine(interview.PhaseConfig{
		Topics:           topics,
		Fields:           cfg.LeadFields,
		MaxScanTurns:     cfg.MaxScanTurns,
		MaxDeepTurns:     cfg.MaxDeepTurns,
		FatigueThreshold: cfg.FatigueThreshold,
	})
	engine := interview.NewEngine(
		interview.NewExtractor(llm, logger),
		interview.NewRedisSnapshotStore(redisClient),
		machine,
		logger,
		m,
		cfg.LLMTimeout,
	)

	var leadsRepo leads.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		leadsRepo = leads.NewPostgresRepository(pool)
		logger.Info("leads persistence enabled")
	} else {
		leadsRepo = leads.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set, leads stored in memory")
	}

	webchatHandler := webchat.NewHandler(engine, leadsRepo, webchat.Config{
		DefaultLanguage:     cfg.DefaultLanguage,
		LeadTriggerStrategy: cfg.LeadTriggerStrategy,
		LeadFields:          cfg.LeadFields,
		Scope:               chatguard.Scope{ResearchGoal: cfg.ResearchGoal, Topics: topicLabels(topics)},
	}, widgetJS, m, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(leadsRepo, logger),
		WebchatHandler:     webchatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MessageRatePerSec:  2,
		MessageBurst:       5,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func parseTopics(raw string) ([]interview.Topic, error) {
	if raw == "" {
		return nil, nil
	}
	var topics []interview.Topic
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

func topicLabels(topics []interview.Topic) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, t.Label)
	}
	return out
}

// demoTopics keeps local development usable without configuration.
func demoTopics() []interview.Topic {
	return []interview.Topic{
		{
			ID:       "product",
			Label:    "Product experience",
			SubGoals: []string{"first impression", "favorite feature", "main frustration"},
		},
		{
			ID:       "pricing",
			Label:    "Pricing perception",
			SubGoals: []string{"perceived value", "willingness to pay"},
		},
	}
}
