package reference

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/sparrowryan/sb-rate-parity/config"
	"github.com/sparrowryan/sb-rate-parity/models"
	"github.com/sparrowryan/sb-rate-parity/scraper"
)

// ChromedpDriver is the live-page PageDriver. One driver wraps one tab whose
// lifetime is a single lookup; Close always releases it.
type ChromedpDriver struct {
	tab    context.Context
	cancel context.CancelFunc
	timing *config.TimingConfig
	passes int
	scroll int
}

// NewPageFactory returns a NewPageFunc that opens one tab per lookup from the
// shared session, bounded by the resolve timeout.
func NewPageFactory(session *scraper.Session, timing *config.TimingConfig, cfg *config.ReferenceConfig, scrollStep int) NewPageFunc {
	return func(ctx context.Context) (PageDriver, error) {
		tab, cancel := session.NewTabWithTimeout(timing.ResolveTimeout)
		return &ChromedpDriver{
			tab:    tab,
			cancel: cancel,
			timing: timing,
			passes: cfg.ScrollPasses,
			scroll: scrollStep,
		}, nil
	}
}

func (d *ChromedpDriver) Open(ctx context.Context, searchURL string) error {
	return chromedp.Run(d.tab,
		chromedp.Navigate(searchURL),
		chromedp.Sleep(d.timing.PageLoadWait),
	)
}

// AlignDates opens the picker, selects both calendar cells by long-form
// accessible label, confirms, and reads back what the picker displays.
func (d *ChromedpDriver) AlignDates(ctx context.Context, w models.DateWindow) (string, string, error) {
	var opened bool
	if err := chromedp.Run(d.tab, chromedp.Evaluate(openPickerJS, &opened)); err != nil {
		return "", "", err
	}
	if !opened {
		return "", "", fmt.Errorf("date picker trigger not found")
	}

	for _, day := range []struct {
		label string
		date  string
	}{
		{LongDateLabel(w.CheckIn), "check-in"},
		{LongDateLabel(w.CheckOut), "check-out"},
	} {
		var clicked bool
		if err := chromedp.Run(d.tab,
			chromedp.Sleep(d.timing.PickerSettleWait),
			chromedp.Evaluate(clickDateCellJS(day.label), &clicked),
		); err != nil {
			return "", "", err
		}
		if !clicked {
			return "", "", fmt.Errorf("%s cell %q not found", day.date, day.label)
		}
	}

	var raw string
	err := chromedp.Run(d.tab,
		chromedp.Evaluate(confirmPickerJS, nil),
		chromedp.Sleep(d.timing.PickerSettleWait),
		chromedp.Evaluate(readbackJS, &raw),
	)
	if err != nil {
		return "", "", err
	}

	var rb struct {
		CheckIn  string `json:"checkin"`
		CheckOut string `json:"checkout"`
	}
	if err := json.Unmarshal([]byte(raw), &rb); err != nil {
		return "", "", fmt.Errorf("parse picker readback: %w", err)
	}
	return rb.CheckIn, rb.CheckOut, nil
}

func (d *ChromedpDriver) ScrollSettle(ctx context.Context) error {
	for i := 0; i < d.passes; i++ {
		if err := chromedp.Run(d.tab, scraper.ScrollToBottom(d.timing, d.scroll)); err != nil {
			return err
		}
	}
	return nil
}

func (d *ChromedpDriver) LabelFragments(ctx context.Context, name string) ([]Fragment, error) {
	return d.fragments(labelFragmentsJS(name))
}

func (d *ChromedpDriver) CardTitleFragments(ctx context.Context, name string) ([]Fragment, error) {
	return d.fragments(cardTitleFragmentsJS(name))
}

func (d *ChromedpDriver) BodyText(ctx context.Context) (string, error) {
	var text string
	err := chromedp.Run(d.tab, chromedp.Evaluate(bodyTextJS, &text))
	return text, err
}

func (d *ChromedpDriver) ProviderHTML(ctx context.Context) (string, error) {
	var html string
	err := chromedp.Run(d.tab,
		chromedp.Evaluate(expandProvidersJS, nil),
		chromedp.Sleep(d.timing.PickerSettleWait),
		chromedp.Evaluate(providerHTMLJS, &html),
	)
	return html, err
}

func (d *ChromedpDriver) Close() {
	d.cancel()
}

func (d *ChromedpDriver) fragments(script string) ([]Fragment, error) {
	var raw string
	if err := chromedp.Run(d.tab, chromedp.Evaluate(script, &raw)); err != nil {
		return nil, err
	}
	var frags []struct {
		Text    string `json:"text"`
		Nightly bool   `json:"nightly"`
	}
	if err := json.Unmarshal([]byte(raw), &frags); err != nil {
		return nil, fmt.Errorf("parse fragments: %w", err)
	}
	out := make([]Fragment, 0, len(frags))
	for _, f := range frags {
		out = append(out, Fragment{Text: f.Text, Nightly: f.Nightly})
	}
	return out, nil
}
