package catalog

import (
	"github.com/shopspring/decimal"
)

// OptionalPrice distinguishes a price field missing from a patch from one
// set to null. Missing means leave it alone; null means clear the override.
type OptionalPrice struct {
	Set   bool
	Value decimal.NullDecimal
}

// UnmarshalJSON records that the field was present, then defers to
// NullDecimal for the value. Absent fields never reach this method.
func (o *OptionalPrice) UnmarshalJSON(data []byte) error {
	o.Set = true
	return o.Value.UnmarshalJSON(data)
}

// MarshalJSON writes the wrapped value; unset behaves like null.
func (o OptionalPrice) MarshalJSON() ([]byte, error) {
	return o.Value.MarshalJSON()
}
