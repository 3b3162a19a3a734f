package domain

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/sparrowryan/sb-rate-parity/models"
)

type CSVRepository struct {
	filePath string
}

func NewCSVRepository(filePath string) *CSVRepository {
	return &CSVRepository{
		filePath: filePath,
	}
}

func (r *CSVRepository) Save(ctx context.Context, rows []models.ComparisonRow) error {
	file, err := os.Create(r.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// header mirrors the webhook row order
	writer.Write([]string{
		"RunDate",
		"CheckIn",
		"CheckOut",
		"Name",
		"City",
		"OwnPrice",
		"RefBestPrice",
		"RefMajorPrice",
		"AdvBestCurrency",
		"AdvBestFraction",
		"AdvMajorCurrency",
		"AdvMajorFraction",
		"OwnURL",
		"RefURL",
	})

	for _, row := range rows {
		writer.Write([]string{
			row.RunDate,
			row.CheckIn,
			row.CheckOut,
			row.Name,
			row.City,
			fmtPrice(row.OwnPrice),
			fmtPrice(row.RefBestPrice),
			fmtPrice(row.RefMajorPrice),
			fmtPrice(row.AdvBestCurrency),
			fmtPrice(row.AdvBestFraction),
			fmtPrice(row.AdvMajorCurrency),
			fmtPrice(row.AdvMajorFraction),
			row.OwnURL,
			row.RefURL,
		})
	}

	return writer.Error()
}

// fmtPrice renders a nullable amount; missing stays an empty cell.
func fmtPrice(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
