package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparrowryan/sb-rate-parity/config"
	"github.com/sparrowryan/sb-rate-parity/delivery"
	"github.com/sparrowryan/sb-rate-parity/models"
)

type fakeDiscoverer struct {
	candidates []models.ListingCandidate
	window     models.DateWindow
}

func (f *fakeDiscoverer) Discover(_ context.Context, w models.DateWindow) ([]models.ListingCandidate, error) {
	f.window = w
	return f.candidates, nil
}

type fakeResolver struct {
	results map[string]models.ReferencePriceResult
	calls   []string
}

func (f *fakeResolver) Resolve(_ context.Context, name, _ string, w models.DateWindow) (models.ReferencePriceResult, error) {
	f.calls = append(f.calls, name)
	res, ok := f.results[name]
	if !ok {
		res = models.ReferencePriceResult{}
	}
	res.CheckIn, res.CheckOut = w.CheckIn, w.CheckOut
	return res, nil
}

// TestRunEndToEnd drives the whole flow: two discovered listings, one hitting
// a date mismatch (null reference) and one resolving fully, delivered to a
// webhook stub in a single batch in discovery order.
func TestRunEndToEnd(t *testing.T) {
	best := 150.0

	var payload struct {
		RunID string  `json:"run_id"`
		Rows  [][]any `json:"rows"`
	}
	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	disc := &fakeDiscoverer{candidates: []models.ListingCandidate{
		{Name: "Hotel Mismatch", City: "Lisbon, PT", PriceRaw: "$90", URL: "https://x/m"},
		{Name: "Hotel Match", City: "Lisbon, PT", PriceRaw: "$100", URL: "https://x/f"},
	}}
	res := &fakeResolver{results: map[string]models.ReferencePriceResult{
		// date-mismatch lookup: both prices stay nil
		"Hotel Mismatch": {},
		"Hotel Match":    {BestPrice: &best, SourceURL: "https://ref/x"},
	}}
	deliverer := delivery.NewWebhook(&config.DeliveryConfig{
		WebhookURL:     srv.URL,
		BatchSize:      10,
		MaxRetries:     2,
		BaseDelay:      time.Millisecond,
		RequestTimeout: time.Second,
	}, "run-e2e")

	var pauses int
	svc := NewRunService(disc, res, deliverer, config.RunConfig{CheckInOffsetDays: 30, Nights: 3}).
		WithPause(func(context.Context) { pauses++ })

	stats, err := svc.Run(context.Background())
	require.NoError(t, err)

	// every property was attempted, serially, with a pause before each
	assert.Equal(t, []string{"Hotel Mismatch", "Hotel Match"}, res.calls)
	assert.Equal(t, 2, pauses)
	assert.True(t, disc.window.Valid())
	assert.Equal(t, 3, disc.window.Nights())

	assert.Equal(t, 2, stats.Discovered)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 1, stats.Missing)
	assert.Equal(t, 1, stats.Delivered)
	assert.Zero(t, stats.Abandoned)

	// one POST, both rows, discovery order preserved
	require.Equal(t, 1, posts)
	require.Len(t, payload.Rows, 2)
	assert.Equal(t, "Hotel Mismatch", payload.Rows[0][3])
	assert.Equal(t, "Hotel Match", payload.Rows[1][3])
	assert.Nil(t, payload.Rows[0][6], "mismatch row ships a null reference price")
	assert.Equal(t, 150.0, payload.Rows[1][6])
	assert.Equal(t, 50.0, payload.Rows[1][8])
}

func TestRunArchivesRows(t *testing.T) {
	saved := 0
	repo := rowRepoFunc(func(_ context.Context, rows []models.ComparisonRow) error {
		saved = len(rows)
		return nil
	})

	disc := &fakeDiscoverer{candidates: []models.ListingCandidate{{Name: "A", City: "B", PriceRaw: "$10"}}}
	res := &fakeResolver{results: map[string]models.ReferencePriceResult{}}
	deliverer := delivery.NewDryRun(discardRepo{}, 10)

	svc := NewRunService(disc, res, deliverer, config.RunConfig{CheckInOffsetDays: 1, Nights: 1}).
		WithArchive(repo)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
}

type rowRepoFunc func(ctx context.Context, rows []models.ComparisonRow) error

func (f rowRepoFunc) Save(ctx context.Context, rows []models.ComparisonRow) error {
	return f(ctx, rows)
}

type discardRepo struct{}

func (discardRepo) Save(context.Context, []models.ComparisonRow) error { return nil }
