package service

import (
	"dust_cleaner/internal/entity"
	"dust_cleaner/internal/pkg/utils"
)

// DustBand is the closed USD value interval a holding must fall inside to count
// as dust.
type DustBand struct {
	MinUSD float64
	MaxUSD float64
}

// Contains reports whether the value falls inside the band. A zero value never
// qualifies, so unpriced tokens are excluded even when MinUSD is zero.
func (b DustBand) Contains(valueUSD float64) bool {
	return valueUSD > 0 && valueUSD >= b.MinUSD && valueUSD <= b.MaxUSD
}

// ValueRecords returns a copy of records with USDValue recomputed from the given
// prices. Records with a fetch error or without a price keep a zero value.
func ValueRecords(records []entity.TokenBalanceRecord, prices entity.PriceMap) []entity.TokenBalanceRecord {
	out := make([]entity.TokenBalanceRecord, len(records))
	for i, record := range records {
		record.USDValue = 0
		if record.FetchError == "" && record.RawBalance != nil {
			price := prices.PriceFor(record.Token.PriceFeedID)
			if price > 0 {
				if value, err := utils.CalculateValueUSD(record.RawBalance, record.Token.Decimals, price); err == nil {
					record.USDValue = value
				}
			}
		}
		out[i] = record
	}
	return out
}

// FilterDust keeps the records whose valuation falls inside the band. Records
// that failed to fetch or hold no balance never qualify.
func FilterDust(records []entity.TokenBalanceRecord, band DustBand) []entity.TokenBalanceRecord {
	out := make([]entity.TokenBalanceRecord, 0, len(records))
	for _, record := range records {
		if record.FetchError != "" || !record.HasBalance() {
			continue
		}
		if band.Contains(record.USDValue) {
			out = append(out, record)
		}
	}
	return out
}

// ClassifyDust values records against the given prices and returns only the
// ones inside the dust band, preserving input order.
func ClassifyDust(records []entity.TokenBalanceRecord, prices entity.PriceMap, band DustBand) []entity.TokenBalanceRecord {
	return FilterDust(ValueRecords(records, prices), band)
}

// TotalValueUSD sums the USD valuation of the given records.
func TotalValueUSD(records []entity.TokenBalanceRecord) float64 {
	total := 0.0
	for _, record := range records {
		total += record.USDValue
	}
	return total
}
