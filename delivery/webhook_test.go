package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparrowryan/sb-rate-parity/config"
	"github.com/sparrowryan/sb-rate-parity/models"
)

func deliveryConfig(url string) *config.DeliveryConfig {
	return &config.DeliveryConfig{
		WebhookURL:     url,
		BatchSize:      2,
		MaxRetries:     4,
		BaseDelay:      time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		RequestTimeout: time.Second,
	}
}

func someRows(n int) []models.ComparisonRow {
	rows := make([]models.ComparisonRow, n)
	for i := range rows {
		rows[i] = models.ComparisonRow{RunDate: "2026-08-30", Name: "Hotel", City: "City"}
	}
	return rows
}

func TestDeliver(t *testing.T) {
	t.Parallel()

	t.Run("retries 429 then succeeds", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		report := NewWebhook(deliveryConfig(srv.URL), "run-1").Deliver(context.Background(), someRows(2))

		assert.Equal(t, int32(3), attempts.Load())
		require.Len(t, report.Batches, 1)
		assert.Equal(t, models.BatchDelivered, report.Batches[0].Outcome)
		assert.Equal(t, 3, report.Batches[0].Attempts)
		assert.Equal(t, 1, report.Delivered)
	})

	t.Run("abandons after the retry bound and continues", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		// 3 rows at batch size 2 = two batches; both fail, both are tried.
		report := NewWebhook(deliveryConfig(srv.URL), "run-1").Deliver(context.Background(), someRows(3))

		require.Len(t, report.Batches, 2)
		assert.Equal(t, models.BatchAbandoned, report.Batches[0].Outcome)
		assert.Equal(t, 4, report.Batches[0].Attempts)
		assert.Equal(t, models.BatchAbandoned, report.Batches[1].Outcome)
		assert.Equal(t, 2, report.Abandoned)
		assert.Equal(t, int32(8), attempts.Load(), "4 attempts per batch")
	})

	t.Run("non-transient status is still retried up to the bound", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		report := NewWebhook(deliveryConfig(srv.URL), "run-1").Deliver(context.Background(), someRows(1))

		assert.Equal(t, int32(4), attempts.Load())
		assert.Equal(t, 1, report.Abandoned)
	})

	t.Run("payload carries ordered row tuples and the run id", func(t *testing.T) {
		t.Parallel()

		var got struct {
			RunID string  `json:"run_id"`
			Rows  [][]any `json:"rows"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		own := 100.0
		ref := 150.0
		adv := 50.0
		rows := []models.ComparisonRow{{
			RunDate:         "2026-08-30",
			CheckIn:         "2026-09-29",
			CheckOut:        "2026-10-02",
			Name:            "Hotel Alpha",
			City:            "Lisbon, PT",
			OwnPrice:        &own,
			RefBestPrice:    &ref,
			AdvBestCurrency: &adv,
			OwnURL:          "https://x/a",
		}}

		report := NewWebhook(deliveryConfig(srv.URL), "run-42").Deliver(context.Background(), rows)
		require.Equal(t, 1, report.Delivered)

		assert.Equal(t, "run-42", got.RunID)
		require.Len(t, got.Rows, 1)
		row := got.Rows[0]
		require.Len(t, row, 14)
		assert.Equal(t, "2026-08-30", row[0])
		assert.Equal(t, "Hotel Alpha", row[3])
		assert.Equal(t, 100.0, row[5])
		assert.Equal(t, 150.0, row[6])
		assert.Nil(t, row[7], "missing major price marshals as null")
		assert.Equal(t, 50.0, row[8])
	})
}

func TestChunk(t *testing.T) {
	t.Parallel()

	rows := someRows(5)
	got := chunk(rows, 2)
	require.Len(t, got, 3)
	assert.Len(t, got[0], 2)
	assert.Len(t, got[2], 1)

	assert.Empty(t, chunk(nil, 2))
	assert.Len(t, chunk(rows, 0), 5, "degenerate size falls back to 1")
}
