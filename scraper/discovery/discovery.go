// Package discovery enumerates listing cards from the booking site's search
// page, a single-page app whose pagination does not change the URL.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/sparrowryan/sb-rate-parity/config"
	"github.com/sparrowryan/sb-rate-parity/models"
	"github.com/sparrowryan/sb-rate-parity/utils"
)

// Card is one rendered listing card as read from the page.
type Card struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	PriceRaw string `json:"price"`
	URL      string `json:"url"`
}

// PageDriver abstracts the live listing page: one navigation, then
// extract/advance cycles against the same SPA view.
type PageDriver interface {
	Open(ctx context.Context, searchURL string) error
	ExtractCards(ctx context.Context) ([]Card, error)
	// NextPage clicks an enabled "next" control and waits until the rendered
	// view advances (card count grows or the first heading changes). It
	// returns false when no usable control exists or the wait timed out,
	// meaning pagination is exhausted.
	NextPage(ctx context.Context) (bool, error)
	// CaptureURL best-effort resolves the detail URL of a still-rendered
	// card by clicking through it and navigating back.
	CaptureURL(ctx context.Context, name string) (string, error)
}

// Discoverer runs the pagination-and-discovery loop.
type Discoverer struct {
	driver PageDriver
	cfg    *config.DiscoveryConfig
	// pause between re-extractions of a transiently empty page; a field so
	// tests run without real sleeps
	emptyRenderWait time.Duration
}

func New(driver PageDriver, cfg *config.DiscoveryConfig, emptyRenderWait time.Duration) *Discoverer {
	return &Discoverer{driver: driver, cfg: cfg, emptyRenderWait: emptyRenderWait}
}

// Discover navigates once to the date-filtered search endpoint and walks SPA
// pages until pagination is exhausted, the page budget runs out, or the
// unique candidate count reaches MaxListings. Dedup is case-insensitive on
// name+city, first occurrence wins.
func (d *Discoverer) Discover(ctx context.Context, window models.DateWindow) ([]models.ListingCandidate, error) {
	searchURL := SearchURL(d.cfg.SearchURL, window)
	log.Printf("[discovery] opening %s", searchURL)

	if err := d.driver.Open(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("discovery: open search page: %w", err)
	}

	seen := make(map[string]bool)
	var out []models.ListingCandidate

	for page := 1; page <= d.cfg.MaxPages; page++ {
		cards, err := d.extractSettled(ctx)
		if err != nil {
			return nil, fmt.Errorf("discovery: extract page %d: %w", page, err)
		}

		added := 0
		for _, c := range cards {
			cand := models.ListingCandidate{
				Name:     c.Name,
				City:     utils.CleanLocation(c.City),
				PriceRaw: c.PriceRaw,
				URL:      c.URL,
			}
			if cand.Name == "" || seen[cand.Key()] {
				continue
			}
			seen[cand.Key()] = true
			out = append(out, cand)
			added++
			if len(out) >= d.cfg.MaxListings {
				log.Printf("[discovery] page %d: +%d new, listing budget reached (%d)", page, added, len(out))
				d.captureURLs(ctx, out)
				return out, nil
			}
		}
		log.Printf("[discovery] page %d: %d cards, %d new, %d total", page, len(cards), added, len(out))

		if page == d.cfg.MaxPages {
			break
		}
		ok, err := d.driver.NextPage(ctx)
		if err != nil {
			log.Printf("[discovery] pagination stopped after page %d: %v", page, err)
			break
		}
		if !ok {
			break
		}
	}

	d.captureURLs(ctx, out)
	return out, nil
}

// extractSettled re-extracts a transiently empty page a bounded number of
// times before treating it as genuinely empty, so a flaky render does not
// truncate discovery.
func (d *Discoverer) extractSettled(ctx context.Context) ([]Card, error) {
	var cards []Card
	var err error
	for attempt := 0; attempt <= d.cfg.EmptyRenderRetries; attempt++ {
		cards, err = d.driver.ExtractCards(ctx)
		if err != nil {
			return nil, err
		}
		if len(cards) > 0 {
			return cards, nil
		}
		if attempt < d.cfg.EmptyRenderRetries {
			log.Printf("[discovery] empty render, retrying (%d/%d)", attempt+1, d.cfg.EmptyRenderRetries)
			select {
			case <-time.After(d.emptyRenderWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return cards, nil
}

// captureURLs fills missing candidate URLs post-hoc via click-through. Errors
// only cost the URL, never the candidate.
func (d *Discoverer) captureURLs(ctx context.Context, candidates []models.ListingCandidate) {
	if !d.cfg.CaptureURLs {
		return
	}
	for i := range candidates {
		if candidates[i].URL != "" {
			continue
		}
		u, err := d.driver.CaptureURL(ctx, candidates[i].Name)
		if err != nil {
			log.Printf("[discovery] url capture failed for %q: %v", candidates[i].Name, err)
			continue
		}
		candidates[i].URL = u
	}
}

// SearchURL parameterizes the listing search endpoint with the date window as
// a structured filter object. The host site requires the filter to be doubly
// URL-encoded for the dates to take effect.
func SearchURL(base string, w models.DateWindow) string {
	filter := fmt.Sprintf(`{"dates":{"checkin":%q,"checkout":%q}}`,
		w.CheckIn.Format("2006-01-02"), w.CheckOut.Format("2006-01-02"))
	return base + "?filters=" + url.QueryEscape(url.QueryEscape(filter))
}

// decodeCards unmarshals the JSON the in-page extraction script produced.
func decodeCards(raw string) ([]Card, error) {
	var cards []Card
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		return nil, fmt.Errorf("parse card JSON: %w", err)
	}
	return cards, nil
}
