package entity

// PriceRecord holds the latest market data for one price-feed id.
// Fields omitted by the upstream feed default to zero.
type PriceRecord struct {
	ID           string  `json:"id"`
	PriceUSD     float64 `json:"price"`
	Change24hPct float64 `json:"priceChange24h"`
	MarketCapUSD float64 `json:"marketCap"`
}

// PriceMap maps a price-feed id to its latest record.
type PriceMap map[string]PriceRecord

// PriceFor returns the USD price for the given feed id, zero when unknown.
func (m PriceMap) PriceFor(id string) float64 {
	if m == nil {
		return 0
	}
	return m[id].PriceUSD
}
