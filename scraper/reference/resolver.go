// Package reference obtains trusted nightly rates for a named property from
// the travel search engine, for an explicitly confirmed date window.
package reference

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sparrowryan/sb-rate-parity/config"
	"github.com/sparrowryan/sb-rate-parity/models"
	"github.com/sparrowryan/sb-rate-parity/utils"
)

// Fragment is one currency-bearing text fragment found inside a matched
// element. Nightly marks fragments the page explicitly labels as a per-night
// rate.
type Fragment struct {
	Text    string
	Nightly bool
}

// PageDriver abstracts one live results page. A fresh driver is opened per
// lookup and closed on every exit path so browser tabs never leak across the
// run's many sequential lookups.
type PageDriver interface {
	Open(ctx context.Context, searchURL string) error
	// AlignDates drives the date picker to the window and returns the
	// short-form text the picker's own inputs display after confirmation
	// (e.g. "Nov 26"). That read-back is the correctness gate.
	AlignDates(ctx context.Context, w models.DateWindow) (checkIn, checkOut string, err error)
	// ScrollSettle triggers lazy rendering with bounded scroll passes.
	ScrollSettle(ctx context.Context) error
	// LabelFragments returns the currency fragments inside the first
	// anchor/card whose accessible label fuzzily matches name.
	LabelFragments(ctx context.Context, name string) ([]Fragment, error)
	// CardTitleFragments is the same scan against listing containers whose
	// title element fuzzily matches name.
	CardTitleFragments(ctx context.Context, name string) ([]Fragment, error)
	// BodyText returns the full page text for the lowest-confidence scan.
	BodyText(ctx context.Context) (string, error)
	// ProviderHTML optionally expands the provider list and returns the
	// provider section's HTML.
	ProviderHTML(ctx context.Context) (string, error)
	Close()
}

// NewPageFunc opens a fresh page driver for one lookup.
type NewPageFunc func(ctx context.Context) (PageDriver, error)

// Resolver applies the ordered extraction chain behind each lookup.
type Resolver struct {
	newPage NewPageFunc
	cfg     *config.ReferenceConfig
}

func New(newPage NewPageFunc, cfg *config.ReferenceConfig) *Resolver {
	return &Resolver{newPage: newPage, cfg: cfg}
}

// Resolve looks up the reference price for one property. A navigation error
// is fatal to this lookup only. A date-picker read-back mismatch returns both
// prices nil without running any extraction: a price against the wrong dates
// would silently corrupt every downstream comparison.
func (r *Resolver) Resolve(ctx context.Context, name, city string, w models.DateWindow) (models.ReferencePriceResult, error) {
	res := models.ReferencePriceResult{CheckIn: w.CheckIn, CheckOut: w.CheckOut}

	page, err := r.newPage(ctx)
	if err != nil {
		return res, fmt.Errorf("reference: open page: %w", err)
	}
	defer page.Close()

	res.SourceURL = SearchURL(r.cfg.SearchURL, name, city)
	if err := page.Open(ctx, res.SourceURL); err != nil {
		return res, fmt.Errorf("reference: navigate %s: %w", res.SourceURL, err)
	}

	ciText, coText, err := page.AlignDates(ctx, w)
	if err != nil {
		log.Printf("[reference] %q: date picker failed: %v — returning no price", name, err)
		return res, nil
	}
	if !DateConfirmed(ciText, w.CheckIn) || !DateConfirmed(coText, w.CheckOut) {
		log.Printf("[reference] %q: picker shows %q/%q, want %s/%s — skipping extraction",
			name, ciText, coText, w.CheckIn.Format("Jan 2"), w.CheckOut.Format("Jan 2"))
		return res, nil
	}

	if err := page.ScrollSettle(ctx); err != nil {
		log.Printf("[reference] %q: scroll settle: %v", name, err)
	}

	res.BestPrice = r.bestPrice(ctx, page, name)
	res.MajorProviderPrice = r.majorProviderPrice(ctx, page)
	return res, nil
}

// bestPrice walks the fallback chain in confidence order; the first strategy
// that yields a parseable amount wins. Exhausting the chain yields nil.
func (r *Resolver) bestPrice(ctx context.Context, page PageDriver, name string) *float64 {
	if frags, err := page.LabelFragments(ctx, name); err == nil {
		if v := pickFragment(frags); v != nil {
			log.Printf("[reference] %q: price %.2f via accessible label", name, *v)
			return v
		}
	} else {
		log.Printf("[reference] %q: label strategy: %v", name, err)
	}

	if frags, err := page.CardTitleFragments(ctx, name); err == nil {
		if v := pickFragment(frags); v != nil {
			log.Printf("[reference] %q: price %.2f via card title", name, *v)
			return v
		}
	} else {
		log.Printf("[reference] %q: card title strategy: %v", name, err)
	}

	body, err := page.BodyText(ctx)
	if err != nil {
		log.Printf("[reference] %q: body text strategy: %v", name, err)
		return nil
	}
	if v := scanBodyWindow(body, name, r.cfg.BodyScanWindow); v != nil {
		log.Printf("[reference] %q: price %.2f via body text window (low confidence)", name, *v)
		return v
	}

	log.Printf("[reference] %q: no strategy produced a price", name)
	return nil
}

// majorProviderPrice is best-effort and never fatal: any failure degrades to
// nil without touching the best-price result.
func (r *Resolver) majorProviderPrice(ctx context.Context, page PageDriver) *float64 {
	html, err := page.ProviderHTML(ctx)
	if err != nil {
		log.Printf("[reference] provider extraction skipped: %v", err)
		return nil
	}
	v, err := MajorProviderPrice(html, r.cfg.MajorProviders)
	if err != nil {
		log.Printf("[reference] provider parsing skipped: %v", err)
		return nil
	}
	return v
}

// pickFragment prefers a fragment explicitly marked nightly; otherwise the
// first fragment with a parseable amount.
func pickFragment(frags []Fragment) *float64 {
	for _, f := range frags {
		if !f.Nightly {
			continue
		}
		if v := utils.ParseCurrencyPtr(f.Text); v != nil {
			return v
		}
	}
	for _, f := range frags {
		if v := utils.ParseCurrencyPtr(f.Text); v != nil {
			return v
		}
	}
	return nil
}

// scanBodyWindow finds the first currency amount within a bounded character
// window after the first occurrence of the property name. The search and the
// slice both run over the lowered text: lowercasing can change byte lengths,
// so offsets from the lowered string must not be applied to the original, and
// only markers and digits are extracted anyway.
func scanBodyWindow(body, name string, window int) *float64 {
	lowerBody := strings.ToLower(body)
	lowerName := strings.ToLower(name)
	idx := strings.Index(lowerBody, lowerName)
	if idx < 0 {
		return nil
	}
	start := idx + len(lowerName)
	if start >= len(lowerBody) {
		return nil
	}
	end := start + window
	if end > len(lowerBody) {
		end = len(lowerBody)
	}
	return utils.ParseCurrencyPtr(lowerBody[start:end])
}

// NameMatches is the fuzzy property-name rule used across strategies: after
// whitespace normalization and lowercasing, either string contains the other.
func NameMatches(label, target string) bool {
	a, b := utils.NormalizeName(label), utils.NormalizeName(target)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// DateConfirmed reports whether the picker's read-back text shows the
// requested date's short form (e.g. "Nov 26"). The day must end at a digit
// boundary: "Nov 2" is not confirmed by a read-back showing "Nov 26".
func DateConfirmed(readback string, want time.Time) bool {
	re := regexp.MustCompile(regexp.QuoteMeta(want.Format("Jan 2")) + `(?:\D|$)`)
	return re.MatchString(readback)
}

// LongDateLabel is the accessible label the picker's calendar cells carry,
// e.g. "November 26, 2025".
func LongDateLabel(d time.Time) string {
	return d.Format("January 2, 2006")
}

// SearchURL builds the travel search engine query for a property in a city.
func SearchURL(base, name, city string) string {
	q := url.Values{}
	q.Set("q", name+" "+utils.CleanLocation(city))
	return base + "?" + q.Encode()
}
