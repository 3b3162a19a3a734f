package models

import (
	"strings"
	"time"
)

// ListingCandidate is one unique property observed on the booking site's
// listing search. Uniqueness is case-insensitive on name+city across the
// whole discovery run; the first occurrence wins.
type ListingCandidate struct {
	Name     string
	City     string
	PriceRaw string // raw price text from the card, may be empty
	URL      string // may be filled post-hoc by click-through capture
}

// Key returns the global dedup key for the candidate.
func (c ListingCandidate) Key() string {
	return strings.ToLower(c.Name) + "|" + strings.ToLower(c.City)
}

// DateWindow is the check-in/check-out pair shared by discovery filtering and
// every reference lookup within one run, so comparisons stay apples-to-apples.
type DateWindow struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (w DateWindow) Valid() bool {
	return w.CheckOut.After(w.CheckIn)
}

func (w DateWindow) Nights() int {
	return int(w.CheckOut.Sub(w.CheckIn).Hours() / 24)
}

// ReferencePriceResult is what a single reference lookup produced. Both price
// fields are nil whenever confidence requirements were not met; a missing
// value is correctness, never a guess.
type ReferencePriceResult struct {
	CheckIn            time.Time
	CheckOut           time.Time
	SourceURL          string
	BestPrice          *float64
	MajorProviderPrice *float64
}

// ComparisonRow is one output row. Its field order is the de facto wire
// contract with the spreadsheet sink; Fields() below is the single place that
// order lives.
type ComparisonRow struct {
	RunDate          string
	CheckIn          string
	CheckOut         string
	Name             string
	City             string
	OwnPrice         *float64
	RefBestPrice     *float64
	RefMajorPrice    *float64
	AdvBestCurrency  *float64
	AdvBestFraction  *float64
	AdvMajorCurrency *float64
	AdvMajorFraction *float64
	OwnURL           string
	RefURL           string
}

// Fields returns the row as an ordered slice for the webhook payload. Missing
// numbers marshal as JSON null.
func (r ComparisonRow) Fields() []any {
	return []any{
		r.RunDate,
		r.CheckIn,
		r.CheckOut,
		r.Name,
		r.City,
		numOrNil(r.OwnPrice),
		numOrNil(r.RefBestPrice),
		numOrNil(r.RefMajorPrice),
		numOrNil(r.AdvBestCurrency),
		numOrNil(r.AdvBestFraction),
		numOrNil(r.AdvMajorCurrency),
		numOrNil(r.AdvMajorFraction),
		r.OwnURL,
		r.RefURL,
	}
}

func numOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

type BatchOutcome string

const (
	BatchDelivered BatchOutcome = "delivered"
	BatchAbandoned BatchOutcome = "abandoned"
)

// DeliveryBatch is one webhook POST unit with its retry bookkeeping.
type DeliveryBatch struct {
	Index    int
	Rows     []ComparisonRow
	Attempts int
	Outcome  BatchOutcome
}

// DeliveryReport summarizes a delivery run. An abandoned batch is a reported
// outcome, not a fatal error.
type DeliveryReport struct {
	Batches   []DeliveryBatch
	Delivered int
	Abandoned int
}

// RunStats is the end-of-run summary that gets logged.
type RunStats struct {
	Discovered int
	Resolved   int
	Missing    int
	Delivered  int
	Abandoned  int
	Duration   time.Duration
}
