package replenishment

// ClampToWarehouse caps every addition at the warehouse stock of its product.
//
// In warehouse-aware mode a product missing from stock has nothing available.
// Outside that mode only products with a stock entry are capped. Units lost to
// the cap are not handed to other products.
func ClampToWarehouse(additions, stock map[string]int, warehouseAware bool) map[string]int {
	out := make(map[string]int, len(additions))
	for product, qty := range additions {
		if qty < 0 {
			qty = 0
		}

		avail, ok := stock[product]
		switch {
		case ok:
			if avail < 0 {
				avail = 0
			}
			if qty > avail {
				qty = avail
			}
		case warehouseAware:
			qty = 0
		}

		out[product] = qty
	}
	return out
}
