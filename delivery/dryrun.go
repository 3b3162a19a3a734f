package delivery

import (
	"context"
	"log"

	"github.com/sparrowryan/sb-rate-parity/internal/domain"
	"github.com/sparrowryan/sb-rate-parity/models"
)

// DryRun satisfies the same contract as Webhook but writes rows to a local
// repository instead of the network, so a run can be inspected end-to-end
// without touching the sink.
type DryRun struct {
	repo      domain.RowRepository
	batchSize int
}

func NewDryRun(repo domain.RowRepository, batchSize int) *DryRun {
	return &DryRun{repo: repo, batchSize: batchSize}
}

func (d *DryRun) Deliver(ctx context.Context, rows []models.ComparisonRow) models.DeliveryReport {
	// Save the whole run in one call: repositories are free to truncate on
	// Save, so per-batch calls would leave only the final batch behind.
	err := d.repo.Save(ctx, rows)

	var report models.DeliveryReport
	for i, batch := range chunk(rows, d.batchSize) {
		b := models.DeliveryBatch{Index: i, Rows: batch, Attempts: 1}
		if err != nil {
			b.Outcome = models.BatchAbandoned
			report.Abandoned++
			log.Printf("[delivery] dry-run batch %d failed: %v", i, err)
		} else {
			b.Outcome = models.BatchDelivered
			report.Delivered++
			log.Printf("[delivery] dry-run batch %d written (%d rows)", i, len(batch))
		}
		report.Batches = append(report.Batches, b)
	}
	return report
}
