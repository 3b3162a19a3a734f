package service

import (
	"time"

	"github.com/sparrowryan/sb-rate-parity/models"
	"github.com/sparrowryan/sb-rate-parity/utils"
)

// BuildRow joins a listing's own price with its reference lookup into one
// output row. Advantage pairs are computed independently against the best
// and the major-provider price; a missing operand yields missing outputs,
// never zero.
func BuildRow(runDate time.Time, cand models.ListingCandidate, ref models.ReferencePriceResult) models.ComparisonRow {
	own := utils.ParseCurrencyPtr(cand.PriceRaw)

	row := models.ComparisonRow{
		RunDate:       runDate.Format("2006-01-02"),
		CheckIn:       ref.CheckIn.Format("2006-01-02"),
		CheckOut:      ref.CheckOut.Format("2006-01-02"),
		Name:          cand.Name,
		City:          cand.City,
		OwnPrice:      own,
		RefBestPrice:  ref.BestPrice,
		RefMajorPrice: ref.MajorProviderPrice,
		OwnURL:        cand.URL,
		RefURL:        ref.SourceURL,
	}

	row.AdvBestCurrency, row.AdvBestFraction = advantage(own, ref.BestPrice)
	row.AdvMajorCurrency, row.AdvMajorFraction = advantage(own, ref.MajorProviderPrice)
	return row
}

// advantage computes how far under the reference rate the own rate sits. The
// fraction is only defined for a positive reference price.
func advantage(own, ref *float64) (*float64, *float64) {
	if own == nil || ref == nil {
		return nil, nil
	}
	cur := *ref - *own
	if *ref <= 0 {
		return &cur, nil
	}
	frac := cur / *ref
	return &cur, &frac
}
