package domain

import "testing"

func TestAggregateDiscount(t *testing.T) {
	cases := []struct {
		name       string
		subtotal   int64
		percentage int
		want       int64
	}{
		{"exact split", 125_000, 10, 12_500},
		{"rounds half up", 105, 10, 11},
		{"rounds down below half", 104, 10, 10},
		{"full discount", 99_900, 100, 99_900},
		{"zero subtotal", 0, 10, 0},
		{"negative subtotal", -100, 10, 0},
		{"zero percentage", 125_000, 0, 0},
		{"percentage over 100", 125_000, 150, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AggregateDiscount(tc.subtotal, tc.percentage)
			if got != tc.want {
				t.Fatalf("AggregateDiscount(%d, %d) = %d, want %d", tc.subtotal, tc.percentage, got, tc.want)
			}
		})
	}
}

func TestAllocateDiscountProportional(t *testing.T) {
	parts := AllocateDiscount([]int64{190_000, 150_000}, 34_000)
	if parts[0] != 19_000 || parts[1] != 15_000 {
		t.Fatalf("unexpected allocation %v", parts)
	}
}

func TestAllocateDiscountRemainderGoesToLargestLine(t *testing.T) {
	// 100 over three equal lines: floor gives 33 each, the leftover 1
	// lands on the largest (first equal) line.
	parts := AllocateDiscount([]int64{1_000, 1_000, 1_000}, 100)
	var total int64
	for _, part := range parts {
		total += part
	}
	if total != 100 {
		t.Fatalf("parts %v sum to %d, want 100", parts, total)
	}
	if parts[0] != 34 || parts[1] != 33 || parts[2] != 33 {
		t.Fatalf("unexpected allocation %v", parts)
	}
}

func TestAllocateDiscountNeverExceedsLineAmount(t *testing.T) {
	parts := AllocateDiscount([]int64{10, 90}, 95)
	var total int64
	for i, part := range parts {
		if part > []int64{10, 90}[i] {
			t.Fatalf("line %d over-allocated: %v", i, parts)
		}
		total += part
	}
	if total != 95 {
		t.Fatalf("parts %v sum to %d, want 95", parts, total)
	}
}

func TestAllocateDiscountCapsAtSum(t *testing.T) {
	parts := AllocateDiscount([]int64{100, 200}, 1_000)
	if parts[0] != 100 || parts[1] != 200 {
		t.Fatalf("discount beyond the sum must saturate lines, got %v", parts)
	}
}

func TestAllocateDiscountSkipsNonPositiveLines(t *testing.T) {
	parts := AllocateDiscount([]int64{0, -50, 300}, 30)
	if parts[0] != 0 || parts[1] != 0 || parts[2] != 30 {
		t.Fatalf("unexpected allocation %v", parts)
	}
}

func TestAllocateDiscountZeroAndEmpty(t *testing.T) {
	if parts := AllocateDiscount(nil, 100); len(parts) != 0 {
		t.Fatalf("expected empty allocation, got %v", parts)
	}
	parts := AllocateDiscount([]int64{100}, 0)
	if parts[0] != 0 {
		t.Fatalf("expected zero allocation, got %v", parts)
	}
}
