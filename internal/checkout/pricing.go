package checkout

// ResolveItems prices the requested items against a catalog snapshot loaded
// inside the order transaction. Client-supplied prices are never consulted.
// Items with an unknown product id or a non-positive quantity are dropped;
// if nothing survives the whole order is invalid.
func ResolveItems(prices map[string]int64, items []ItemInput) ([]Line, int64, error) {
	lines := make([]Line, 0, len(items))
	var total int64
	for _, it := range items {
		price, ok := prices[it.ProductID]
		if !ok || it.Qty <= 0 {
			continue
		}
		lines = append(lines, Line{ProductID: it.ProductID, Qty: it.Qty, PriceCents: price})
		total += int64(it.Qty) * price
	}
	if len(lines) == 0 {
		return nil, 0, ErrNoValidProducts
	}
	return lines, total, nil
}
