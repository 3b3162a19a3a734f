package domain

import (
	"context"
	"database/sql"

	"github.com/sparrowryan/sb-rate-parity/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the archive table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS rate_comparisons (
		id                 SERIAL PRIMARY KEY,
		run_date           TEXT NOT NULL,
		check_in           TEXT NOT NULL,
		check_out          TEXT NOT NULL,
		name               TEXT NOT NULL,
		city               TEXT NOT NULL,
		own_price          DOUBLE PRECISION,
		ref_best_price     DOUBLE PRECISION,
		ref_major_price    DOUBLE PRECISION,
		adv_best_currency  DOUBLE PRECISION,
		adv_best_fraction  DOUBLE PRECISION,
		adv_major_currency DOUBLE PRECISION,
		adv_major_fraction DOUBLE PRECISION,
		own_url            TEXT,
		ref_url            TEXT
	)`)
	return err
}

func (r *PostgresRepository) Save(ctx context.Context, rows []models.ComparisonRow) error {
	query := `
	INSERT INTO rate_comparisons (
		run_date, check_in, check_out, name, city,
		own_price, ref_best_price, ref_major_price,
		adv_best_currency, adv_best_fraction, adv_major_currency, adv_major_fraction,
		own_url, ref_url
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, row := range rows {
		_, err := r.db.ExecContext(
			ctx,
			query,
			row.RunDate,
			row.CheckIn,
			row.CheckOut,
			row.Name,
			row.City,
			row.OwnPrice,
			row.RefBestPrice,
			row.RefMajorPrice,
			row.AdvBestCurrency,
			row.AdvBestFraction,
			row.AdvMajorCurrency,
			row.AdvMajorFraction,
			row.OwnURL,
			row.RefURL,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
