// Package application wires configuration, the browser session and the run
// service into one process.
package application

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/sparrowryan/sb-rate-parity/config"
	"github.com/sparrowryan/sb-rate-parity/delivery"
	"github.com/sparrowryan/sb-rate-parity/internal/domain"
	"github.com/sparrowryan/sb-rate-parity/scraper"
	"github.com/sparrowryan/sb-rate-parity/scraper/discovery"
	"github.com/sparrowryan/sb-rate-parity/scraper/reference"
	"github.com/sparrowryan/sb-rate-parity/service"
)

type App struct {
	cfg *config.Config
}

func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

func (a *App) Run(ctx context.Context) error {
	runID := uuid.New().String()
	log.Printf("[app] run %s: max_listings=%d max_pages=%d batch_size=%d max_retries=%d dry_run=%v",
		runID, a.cfg.Discovery.MaxListings, a.cfg.Discovery.MaxPages,
		a.cfg.Delivery.BatchSize, a.cfg.Delivery.MaxRetries, a.cfg.Delivery.DryRun)

	session := scraper.NewSession(ctx, a.cfg)
	defer session.Close()

	discoveryDriver := discovery.NewChromedpDriver(session, &a.cfg.Timing, a.cfg.Discovery.ScrollStep)
	defer discoveryDriver.Close()
	discoverer := discovery.New(discoveryDriver, &a.cfg.Discovery, a.cfg.Timing.EmptyRenderWait)

	resolver := reference.New(
		reference.NewPageFactory(session, &a.cfg.Timing, &a.cfg.Reference, a.cfg.Discovery.ScrollStep),
		&a.cfg.Reference,
	)

	var deliverer service.Deliverer
	if a.cfg.Delivery.DryRun {
		log.Printf("[app] dry run: rows go to %s instead of the webhook", a.cfg.Delivery.CSVPath)
		deliverer = delivery.NewDryRun(domain.NewCSVRepository(a.cfg.Delivery.CSVPath), a.cfg.Delivery.BatchSize)
	} else {
		deliverer = delivery.NewWebhook(&a.cfg.Delivery, runID)
	}

	svc := service.NewRunService(discoverer, resolver, deliverer, a.cfg.Run).
		WithPause(session.Politeness)

	if dsn := a.cfg.Run.DatabaseDSN; dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping db: %w", err)
		}
		repo := domain.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		log.Println("[app] postgres archive enabled")
		svc = svc.WithArchive(repo)
	}

	stats, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Printf("✓ Run completed: %d listings compared, %d reference prices found, %d batches delivered, %d abandoned\n",
		stats.Discovered, stats.Resolved, stats.Delivered, stats.Abandoned)
	return nil
}
