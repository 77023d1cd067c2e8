package domain

// AggregateDiscount computes the percentage discount over a subtotal with a
// single half-up rounding in minor currency units. Percentages outside
// [0, 100] yield zero.
func AggregateDiscount(subtotal int64, percentage int) int64 {
	if subtotal <= 0 || percentage <= 0 || percentage > 100 {
		return 0
	}
	return (subtotal*int64(percentage) + 50) / 100
}

// AllocateDiscount distributes a total discount across line amounts in
// proportion to each line's share of the sum. Allocation is floor-based with
// the remainder assigned to the largest line, so the parts always sum to the
// total. Lines with non-positive amounts receive nothing.
func AllocateDiscount(amounts []int64, discount int64) []int64 {
	parts := make([]int64, len(amounts))
	if discount <= 0 || len(amounts) == 0 {
		return parts
	}

	var sum int64
	largest := -1
	for i, amount := range amounts {
		if amount <= 0 {
			continue
		}
		sum += amount
		if largest < 0 || amount > amounts[largest] {
			largest = i
		}
	}
	if sum <= 0 {
		return parts
	}
	if discount > sum {
		discount = sum
	}

	var allocated int64
	for i, amount := range amounts {
		if amount <= 0 {
			continue
		}
		share := discount * amount / sum
		if share > amount {
			share = amount
		}
		parts[i] = share
		allocated += share
	}

	remainder := discount - allocated
	for remainder > 0 && largest >= 0 {
		headroom := amounts[largest] - parts[largest]
		if headroom >= remainder {
			parts[largest] += remainder
			return parts
		}
		parts[largest] += headroom
		remainder -= headroom
		// Largest line saturated; push the rest onto any line with room.
		largest = -1
		for i, amount := range amounts {
			if amount > parts[i] && (largest < 0 || amount-parts[i] > amounts[largest]-parts[largest]) {
				largest = i
			}
		}
	}
	return parts
}
