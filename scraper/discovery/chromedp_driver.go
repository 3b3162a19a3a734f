package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/sparrowryan/sb-rate-parity/config"
	"github.com/sparrowryan/sb-rate-parity/scraper"
)

// ChromedpDriver drives the live listing page through one browser tab. The
// tab is created on Open and held for the whole discovery run, because the
// SPA's pagination state lives in the page, not the URL.
type ChromedpDriver struct {
	session *scraper.Session
	timing  *config.TimingConfig
	scroll  int

	tab    context.Context
	cancel context.CancelFunc
}

func NewChromedpDriver(session *scraper.Session, timing *config.TimingConfig, scrollStep int) *ChromedpDriver {
	return &ChromedpDriver{session: session, timing: timing, scroll: scrollStep}
}

func (d *ChromedpDriver) Open(ctx context.Context, searchURL string) error {
	d.tab, d.cancel = d.session.NewTab()

	err := chromedp.Run(d.tab,
		chromedp.Navigate(searchURL),
		chromedp.Sleep(d.timing.PageLoadWait),
		scraper.ScrollToBottom(d.timing, d.scroll),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", searchURL, err)
	}
	return nil
}

func (d *ChromedpDriver) ExtractCards(ctx context.Context) ([]Card, error) {
	var raw string
	if err := chromedp.Run(d.tab, chromedp.Evaluate(cardsJS, &raw)); err != nil {
		return nil, err
	}
	return decodeCards(raw)
}

// NextPage clicks the next control, then polls the page until the card count
// grows or the first heading changes. A timed-out wait means pagination is
// exhausted, not an error.
func (d *ChromedpDriver) NextPage(ctx context.Context) (bool, error) {
	before, err := d.pageState()
	if err != nil {
		return false, err
	}

	var clicked bool
	if err := chromedp.Run(d.tab, chromedp.Evaluate(clickNextJS, &clicked)); err != nil {
		return false, err
	}
	if !clicked {
		return false, nil
	}

	deadline := time.Now().Add(d.timing.PaginationWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(d.timing.PaginationPoll):
		}

		after, err := d.pageState()
		if err != nil {
			return false, err
		}
		if after.Count > before.Count || (after.First != "" && after.First != before.First) {
			_ = chromedp.Run(d.tab, scraper.ScrollToBottom(d.timing, d.scroll))
			return true, nil
		}
	}

	log.Printf("[discovery] pagination advance not observed within %s, assuming exhausted", d.timing.PaginationWait)
	return false, nil
}

// CaptureURL clicks through a rendered card, reads the resulting location and
// navigates back so the listing view is restored.
func (d *ChromedpDriver) CaptureURL(ctx context.Context, name string) (string, error) {
	var clicked bool
	if err := chromedp.Run(d.tab, chromedp.Evaluate(clickCardJS(name), &clicked)); err != nil {
		return "", err
	}
	if !clicked {
		return "", fmt.Errorf("card %q no longer rendered", name)
	}

	var captured string
	err := chromedp.Run(d.tab,
		chromedp.Sleep(d.timing.PageLoadWait),
		chromedp.Evaluate(`location.href`, &captured),
		chromedp.NavigateBack(),
		chromedp.Sleep(d.timing.PageLoadWait),
	)
	if err != nil {
		return "", err
	}
	return captured, nil
}

// Close releases the discovery tab.
func (d *ChromedpDriver) Close() {
	if d.cancel != nil {
		d.cancel()
	}
}

type pageState struct {
	Count int    `json:"count"`
	First string `json:"first"`
}

func (d *ChromedpDriver) pageState() (pageState, error) {
	var raw string
	var st pageState
	if err := chromedp.Run(d.tab, chromedp.Evaluate(pageStateJS, &raw)); err != nil {
		return st, err
	}
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return st, fmt.Errorf("parse page state: %w", err)
	}
	return st, nil
}
