package model

import "fmt"

// Money is an amount in integer minor units (e.g. paise). All order
// arithmetic stays in int64 so totals never accumulate float drift.
type Money int64

// String renders the amount as major.minor, e.g. 117690 -> "1176.90".
func (m Money) String() string {
	minor := int64(m) % 100
	if minor < 0 {
		minor = -minor
	}
	return fmt.Sprintf("%d.%02d", int64(m)/100, minor)
}

// Float64 converts to major units for presentation payloads.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// OrderTotal computes quantity×unitPrice + deliveryFee + tax, where tax
// applies to the base amount only, in basis points. qtyMilli is in
// thousandths of a unit, so the base is exact integer arithmetic.
func OrderTotal(qtyMilli int64, unitPrice, deliveryFee Money, taxRateBP int64) Money {
	base := qtyMilli * int64(unitPrice) / 1000
	tax := base * taxRateBP / 10000
	return Money(base) + deliveryFee + Money(tax)
}
