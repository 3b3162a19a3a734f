package domain

import (
	"context"

	"github.com/sparrowryan/sb-rate-parity/models"
)

// RowRepository archives comparison rows locally, independent of the webhook
// sink.
type RowRepository interface {
	Save(ctx context.Context, rows []models.ComparisonRow) error
}
