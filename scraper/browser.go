package scraper

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/sparrowryan/sb-rate-parity/config"
)

// Session owns the single shared Chrome process. All tabs are created from
// it, and it gates every navigation through one politeness limiter so the
// whole run stays within the host sites' tolerance.
type Session struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	limiter  *rate.Limiter
	stealth  config.StealthConfig
}

// NewSession creates the shared Chrome process from the given config.
func NewSession(parent context.Context, cfg *config.Config) *Session {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("disable-gpu", cfg.Browser.DisableGPU),
		chromedp.Flag("no-sandbox", cfg.Browser.NoSandbox),
		chromedp.Flag("disable-setuid-sandbox", cfg.Browser.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", cfg.Browser.DisableShm),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.Browser.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(parent, opts...)

	var limiter *rate.Limiter
	if cfg.Stealth.MaxRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Stealth.MaxRequestsPerSecond), 1)
	}

	return &Session{
		allocCtx: allocCtx,
		cancel:   cancel,
		limiter:  limiter,
		stealth:  cfg.Stealth,
	}
}

// NewTab opens a browser tab with realistic request headers applied.
func (s *Session) NewTab() (context.Context, context.CancelFunc) {
	tab, cancel := chromedp.NewContext(s.allocCtx)
	applyHeaders(tab)
	return tab, cancel
}

// NewTabWithTimeout opens a tab that auto-cancels after the given duration.
func (s *Session) NewTabWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	tCtx, tCancel := context.WithTimeout(s.allocCtx, timeout)
	tab, bCancel := chromedp.NewContext(tCtx)
	applyHeaders(tab)
	return tab, func() {
		bCancel()
		tCancel()
	}
}

// Politeness blocks for the rate limiter plus a randomized delay. Called
// before each reference lookup.
func (s *Session) Politeness(ctx context.Context) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
	}

	minMs := s.stealth.RandomDelayMin.Milliseconds()
	maxMs := s.stealth.RandomDelayMax.Milliseconds()
	var d time.Duration
	switch {
	case minMs >= maxMs:
		// Equal or inverted bounds still mean "pause at least min".
		d = time.Duration(minMs) * time.Millisecond
	default:
		d = time.Duration(rand.Int63n(maxMs-minMs)+minMs) * time.Millisecond
	}
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Close tears down the Chrome process.
func (s *Session) Close() {
	s.cancel()
}

// applyHeaders sets extra HTTP headers so requests look like a regular
// browser session. Failure is logged, not fatal.
func applyHeaders(tab context.Context) {
	headers := network.Headers{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Upgrade-Insecure-Requests": "1",
	}
	if err := chromedp.Run(tab, network.Enable(), network.SetExtraHTTPHeaders(headers)); err != nil {
		log.Printf("[browser] could not set extra headers: %v", err)
	}
}

// ScrollToBottom incrementally scrolls the page so lazy-loaded content
// renders, then pauses at the bottom. Using ActionFunc (not async JS) ensures
// each step actually blocks.
func ScrollToBottom(cfg *config.TimingConfig, scrollStep int) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		var height int
		if err := chromedp.Evaluate(`document.body.scrollHeight`, &height).Do(ctx); err != nil {
			return fmt.Errorf("scrollToBottom: get height: %w", err)
		}

		for y := 0; y <= height; y += scrollStep {
			if err := chromedp.Evaluate(
				fmt.Sprintf(`window.scrollTo(0, %d)`, y), nil,
			).Do(ctx); err != nil {
				return fmt.Errorf("scrollToBottom: scroll to %d: %w", y, err)
			}
			time.Sleep(cfg.ScrollStepDelay)
		}

		// Final pause so last lazy-loaded items have time to render
		time.Sleep(cfg.ScrollBottomWait)
		return nil
	}
}
