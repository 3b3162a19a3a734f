// Package service orchestrates one comparison run: discovery, serial
// reference lookups, row building, delivery and optional archival.
package service

import (
	"context"
	"log"
	"time"

	"github.com/sparrowryan/sb-rate-parity/config"
	"github.com/sparrowryan/sb-rate-parity/internal/domain"
	"github.com/sparrowryan/sb-rate-parity/models"
)

type Discoverer interface {
	Discover(ctx context.Context, window models.DateWindow) ([]models.ListingCandidate, error)
}

type Resolver interface {
	Resolve(ctx context.Context, name, city string, w models.DateWindow) (models.ReferencePriceResult, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, rows []models.ComparisonRow) models.DeliveryReport
}

// RunService wires the components behind one Run call. Lookups are strictly
// serial; pause runs before each one so the reference site sees a human-ish
// cadence.
type RunService struct {
	discoverer Discoverer
	resolver   Resolver
	deliverer  Deliverer
	archive    domain.RowRepository // optional
	pause      func(ctx context.Context)
	runCfg     config.RunConfig
	now        func() time.Time
}

func NewRunService(d Discoverer, r Resolver, del Deliverer, runCfg config.RunConfig) *RunService {
	return &RunService{
		discoverer: d,
		resolver:   r,
		deliverer:  del,
		runCfg:     runCfg,
		pause:      func(context.Context) {},
		now:        time.Now,
	}
}

// WithArchive adds a local row archive written after delivery.
func (s *RunService) WithArchive(repo domain.RowRepository) *RunService {
	s.archive = repo
	return s
}

// WithPause sets the politeness delay applied before each reference lookup.
func (s *RunService) WithPause(pause func(ctx context.Context)) *RunService {
	s.pause = pause
	return s
}

// Run executes one full comparison run. Missing reference prices and
// abandoned batches are reported, never silently replaced; only discovery
// failure aborts the run.
func (s *RunService) Run(ctx context.Context) (models.RunStats, error) {
	start := s.now()
	window := s.runCfg.Window(start)
	log.Printf("[run] window %s → %s (%d nights)",
		window.CheckIn.Format("2006-01-02"), window.CheckOut.Format("2006-01-02"), window.Nights())

	candidates, err := s.discoverer.Discover(ctx, window)
	if err != nil {
		return models.RunStats{}, err
	}

	stats := models.RunStats{Discovered: len(candidates)}
	rows := make([]models.ComparisonRow, 0, len(candidates))

	for _, cand := range candidates {
		s.pause(ctx)

		ref, err := s.resolver.Resolve(ctx, cand.Name, cand.City, window)
		if err != nil {
			// Fatal to this property only; the row still goes out with no
			// reference price so the gap is visible downstream.
			log.Printf("[run] %q (%s): reference lookup failed: %v", cand.Name, cand.City, err)
			ref.CheckIn, ref.CheckOut = window.CheckIn, window.CheckOut
		}
		if ref.BestPrice != nil {
			stats.Resolved++
		} else {
			stats.Missing++
		}

		rows = append(rows, BuildRow(start, cand, ref))
	}

	report := s.deliverer.Deliver(ctx, rows)
	stats.Delivered = report.Delivered
	stats.Abandoned = report.Abandoned

	if s.archive != nil {
		if err := s.archive.Save(ctx, rows); err != nil {
			log.Printf("[run] archive save failed: %v", err)
		}
	}

	stats.Duration = s.now().Sub(start)
	log.Printf("[run] finished — discovered=%d resolved=%d missing=%d batches delivered=%d abandoned=%d duration=%s",
		stats.Discovered, stats.Resolved, stats.Missing, stats.Delivered, stats.Abandoned, stats.Duration)

	return stats, nil
}
