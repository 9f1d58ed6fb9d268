package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sickdaywithferris/booking-ai-platform/cmd/mainconfig"
	"github.com/sickdaywithferris/booking-ai-platform/internal/agent"
	"github.com/sickdaywithferris/booking-ai-platform/internal/api/router"
	appconfig "github.com/sickdaywithferris/booking-ai-platform/internal/config"
	"github.com/sickdaywithferris/booking-ai-platform/internal/http/handlers"
	"github.com/sickdaywithferris/booking-ai-platform/internal/notify"
	"github.com/sickdaywithferris/booking-ai-platform/internal/observability/metrics"
	"github.com/sickdaywithferris/booking-ai-platform/internal/store"
	"github.com/sickdaywithferris/booking-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	bookingStore := store.NewPostgres(db)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()
	stateStore := agent.NewRedisStateStore(redisClient, cfg.StateTTL)

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Primary Bedrock, optional OpenAI fallback, retries around both.
	var llm agent.LLMClient = agent.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	var fallback agent.LLMClient
	if cfg.OpenAIAPIKey != "" {
		fallback = agent.NewOpenAILLMClient(openai.NewClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	} else if cfg.GeminiAPIKey != "" {
		gemini, gerr := agent.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if gerr != nil {
			logger.Error("failed to init gemini fallback", "error", gerr)
		} else {
			defer func() { _ = gemini.Close() }()
			fallback = gemini
		}
	}
	llm = agent.NewFallbackLLMClient(llm, fallback, logger.Component("llm"))
	llm = agent.NewRetryLLMClient(llm, cfg.LLMMaxRetries, cfg.LLMRetryBaseDelay, logger.Component("llm"))

	var emailSender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger.Component("notify")); sg != nil {
			emailSender = sg
		}
	case "ses":
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger.Component("notify"))
	}
	if emailSender == nil {
		emailSender = notify.NewStubEmailSender(logger.Component("notify"))
	}
	approvalNotifier := notify.NewApprovalNotifier(
		emailSender, cfg.AdminEmail, "", cfg.PublicBaseURL, logger.Component("notify"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	agentMetrics := metrics.NewAgentMetrics(registry)

	engineCfg := agent.EngineConfig{
		Model:         cfg.BedrockModelID,
		BandName:      cfg.BandName,
		AgentName:     cfg.AgentName,
		AgentEmail:    cfg.AgentEmail,
		BandWebsite:   cfg.BandWebsite,
		MinNoticeDays: cfg.MinNoticeDays,
		Channel:       cfg.DefaultChannel,
	}
	var notifier agent.ApprovalNotifier
	if approvalNotifier != nil {
		notifier = approvalNotifier
	}
	engine := agent.NewEngine(llm, bookingStore, stateStore, notifier, agentMetrics,
		logger.Component("agent"), engineCfg)

	var dispatcher *agent.QueueDispatcher
	if cfg.UseMemoryQueue {
		dispatcher = agent.NewQueueDispatcher(engine, agent.NewMemoryQueue(128),
			logger.Component("dispatcher"), agent.WithWorkerCount(cfg.WorkerCount))
	} else {
		sqsClient := sqs.NewFromConfig(awsCfg)
		dispatcher = agent.NewQueueDispatcher(engine, agent.NewSQSQueue(sqsClient, cfg.AgentQueueURL),
			logger.Component("dispatcher"), agent.WithWorkerCount(cfg.WorkerCount))
	}

	agentHandler := agent.NewHandler(dispatcher, engine, logger.Component("http"))
	emailWebhook := handlers.NewEmailWebhookHandler(cfg.EmailWebhookSecret, dispatcher, logger.Component("webhook"))

	r := router.New(&router.Config{
		Logger:             logger,
		AgentHandler:       agentHandler,
		EmailWebhook:       emailWebhook,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSOriginsList(),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
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
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatcher forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
