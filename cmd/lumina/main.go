package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/cache/redis"
	"github.com/lumina-kb/lumina/internal/chat"
	"github.com/lumina-kb/lumina/internal/console"
	"github.com/lumina-kb/lumina/internal/enhance"
	"github.com/lumina-kb/lumina/internal/feedback"
	"github.com/lumina-kb/lumina/internal/ingest"
	"github.com/lumina-kb/lumina/internal/llm"
	"github.com/lumina-kb/lumina/internal/metrics"
	"github.com/lumina-kb/lumina/internal/objectstore"
	"github.com/lumina-kb/lumina/internal/qa"
	"github.com/lumina-kb/lumina/internal/search"
	"github.com/lumina-kb/lumina/internal/storage/sqlite"
	"github.com/lumina-kb/lumina/pkg/config"
	"github.com/lumina-kb/lumina/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && err != context.Canceled {
		logger.Error("session ended with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ledger, err := sqlite.NewClient(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer ledger.Close()
	if err := ledger.InitSchema(); err != nil {
		return err
	}

	store, err := objectstore.NewS3Store(ctx, cfg.Storage.Endpoint, cfg.Storage.Region,
		cfg.Storage.Bucket, cfg.Storage.AccessKey, cfg.Storage.SecretKey)
	if err != nil {
		return fmt.Errorf("failed to initialize feedback storage: %w", err)
	}
	agg := feedback.New(store)

	gen := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.Endpoint, cfg.LLM.Model,
		cfg.LLM.MaxTokens, cfg.LLM.TimeoutSec)

	gateway := search.NewClient(cfg.Search.Endpoint, cfg.Search.AdminKey,
		cfg.Search.APIVersion, cfg.Search.TopK)
	indexes := search.NewIndexCache(gateway)

	// The retrieval cache is a soft dependency. A redis that is down
	// just means every question hits the search service directly.
	var contexts *redis.Client
	if cfg.Redis.Addr != "" {
		contexts, err = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("retrieval cache unavailable, continuing without it", zap.Error(err))
			contexts = nil
		} else {
			defer contexts.Close()
		}
	}

	if cfg.Ops.Enabled {
		go serveOps(cfg.Ops.Addr, ledger)
	}

	ingestor := ingest.New(qa.NewSynthesizer(gen), enhance.New(gen), gateway, ledger,
		cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	session := chat.NewSession(gen, gateway, indexes, contexts, ledger)

	logger.Info("console session starting", zap.String("session_id", session.ID))

	repl := console.New(session, ingestor, agg,
		cfg.Ingest.LinksFile, cfg.Ingest.TranscriptsDir, os.Stdin, os.Stdout)
	return repl.Run(ctx)
}

// serveOps exposes liveness, metrics, and recent query history on a
// loopback listener so the terminal stays dedicated to the conversation.
func serveOps(addr string, ledger *sqlite.Client) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())
	app.Get("/queries", func(c *fiber.Ctx) error {
		records, err := ledger.RecentQueries(20)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(records)
	})

	if err := app.Listen(addr); err != nil {
		logger.Warn("ops listener stopped", zap.Error(err))
	}
}
