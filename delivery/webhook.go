// Package delivery ships comparison rows to the spreadsheet webhook in
// bounded batches with retry-with-backoff. Partial delivery is a reported
// outcome, never a fatal error.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/sparrowryan/sb-rate-parity/config"
	"github.com/sparrowryan/sb-rate-parity/models"
	"github.com/sparrowryan/sb-rate-parity/retry"
)

type payload struct {
	RunID string  `json:"run_id"`
	Rows  [][]any `json:"rows"`
}

// Webhook POSTs row batches to the configured endpoint.
type Webhook struct {
	cfg    *config.DeliveryConfig
	client *http.Client
	runID  string
}

func NewWebhook(cfg *config.DeliveryConfig, runID string) *Webhook {
	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		runID:  runID,
	}
}

// Deliver slices rows into fixed-size batches in original order and ships
// each one. A batch that exhausts its retries is abandoned and logged; later
// batches still go out.
func (w *Webhook) Deliver(ctx context.Context, rows []models.ComparisonRow) models.DeliveryReport {
	var report models.DeliveryReport

	policy := retry.Policy{
		MaxAttempts: w.cfg.MaxRetries,
		BaseDelay:   w.cfg.BaseDelay,
		MaxDelay:    w.cfg.MaxDelay,
	}

	for i, batchRows := range chunk(rows, w.cfg.BatchSize) {
		batch := models.DeliveryBatch{Index: i, Rows: batchRows}

		err := retry.Do(ctx, policy, retry.Always, func() error {
			batch.Attempts++
			return w.post(ctx, batchRows)
		})
		if err != nil {
			batch.Outcome = models.BatchAbandoned
			report.Abandoned++
			log.Printf("[delivery] batch %d abandoned after %d attempts: %v", i, batch.Attempts, err)
		} else {
			batch.Outcome = models.BatchDelivered
			report.Delivered++
			log.Printf("[delivery] batch %d delivered (%d rows, %d attempts)", i, len(batchRows), batch.Attempts)
		}
		report.Batches = append(report.Batches, batch)
	}

	return report
}

// post sends one batch and classifies the response. 2xx succeeds; 429 and
// 5xx are transient; anything else is unexpected but still retried up to the
// bound, per the pipeline's never-block-later-batches policy.
func (w *Webhook) post(ctx context.Context, rows []models.ComparisonRow) error {
	p := payload{RunID: w.runID, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		p.Rows = append(p.Rows, r.Fields())
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	// Response body is opaque; keep a bounded slice of it for diagnostics.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("transient webhook status %s: %s", resp.Status, respBody)
	default:
		return fmt.Errorf("unexpected webhook status %s: %s", resp.Status, respBody)
	}
}

func chunk(rows []models.ComparisonRow, size int) [][]models.ComparisonRow {
	if size < 1 {
		size = 1
	}
	var out [][]models.ComparisonRow
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}
