package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/job-recommender/internal/config"
	"github.com/jonathan/job-recommender/internal/db"
	"github.com/jonathan/job-recommender/internal/feedback"
	"github.com/jonathan/job-recommender/internal/fetch"
	"github.com/jonathan/job-recommender/internal/ingestion"
	"github.com/jonathan/job-recommender/internal/insights"
	"github.com/jonathan/job-recommender/internal/interview"
	"github.com/jonathan/job-recommender/internal/llm"
	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/recs"
	"github.com/jonathan/job-recommender/internal/server"
	"github.com/jonathan/job-recommender/internal/session"
	"github.com/jonathan/job-recommender/internal/upstream"
)

var (
	servePort   int
	serveConfig string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the session, recommendation, interview, insight and login endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "Path to a config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := observability.NewLogger(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return srv.Start(ctx)
}

// newApp wires the server's collaborators from cfg. The returned cleanup
// releases the user store and the LLM client.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*server.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	metrics := observability.NewMetrics()
	boosts := feedback.NewStore()

	var recsClient *recs.Client
	if cfg.Recs.BaseURL != "" {
		recsClient = recs.NewClient(upstream.New(upstream.Options{
			Name:    "recs",
			BaseURL: cfg.Recs.BaseURL,
			Timeout: cfg.Recs.Timeout,
			Breaker: cfg.Recs.Breaker,
			Logger:  logger,
			Metrics: metrics,
		}))
	}

	recsOpts := recs.Options{
		Boosts:         boosts,
		CandidateLimit: cfg.Session.CandidateLimit,
		DefaultTop:     cfg.Session.DefaultTop,
		MaxTop:         cfg.Session.MaxTop,
		Logger:         logger,
		Metrics:        metrics,
	}
	if cfg.Recs.Mode == config.RecsModeRemote && recsClient != nil {
		recsOpts.Remote = recsClient
	}

	var normalizer ingestion.Normalizer
	if cfg.Ingest.BaseURL != "" {
		normalizer = ingestion.NewServiceNormalizer(upstream.New(upstream.Options{
			Name:    "ingest",
			BaseURL: cfg.Ingest.BaseURL,
			Timeout: cfg.Ingest.Timeout,
			Breaker: cfg.Ingest.Breaker,
			Logger:  logger,
			Metrics: metrics,
		}))
	} else {
		normalizer = ingestion.NewLocalNormalizer(fetch.PageOptions{
			Fetch:      fetch.DefaultOptions(),
			UseBrowser: cfg.Ingest.UseBrowser,
			Logger:     logger,
		})
	}

	var generators []interview.Generator
	if recsClient != nil {
		generators = append(generators, interview.NewRemote(recsClient))
	}
	if cfg.LLM.GeminiAPIKey != "" {
		llmConfig := llm.DefaultConfig()
		if cfg.LLM.Model != "" {
			llmConfig = llmConfig.WithModel(llm.TierStandard, cfg.LLM.Model)
		}
		client, err := llm.NewGeminiClient(ctx, llmConfig, cfg.LLM.GeminiAPIKey)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		generators = append(generators, interview.NewGemini(client))
	}

	var users db.UserStore = db.NewMemoryStore()
	if cfg.Database.URL != "" {
		database, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, database.Close)
		if err := database.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		users = database
	} else {
		logger.Info("no database configured, keeping users in memory")
	}

	opts := server.Options{
		Config: cfg,
		Sessions: session.NewRegistry(session.Config{
			IdleTTL: cfg.Session.IdleTTL,
		}),
		Feedback:   boosts,
		Recs:       recs.NewService(recsOpts),
		Normalizer: normalizer,
		Interviews: interview.NewChain(logger, generators...),
		Users:      users,
		Logger:     logger,
		Metrics:    metrics,
	}
	if recsClient != nil {
		opts.Forwarder = recsClient
		opts.Insights = insights.NewService(recsClient, 0, logger)
	}

	srv, err := server.New(opts)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, cleanup, nil
}
