// Package model defines domain types used by the service.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category is embedded in every product; it has no lifecycle of its own.
type Category struct {
	ID   int    `json:"Id"`
	Name string `json:"Name"`
}

// Product represents a catalog item.
type Product struct {
	ID       int      `json:"Id"`
	Name     string   `json:"Name"`
	Price    Price    `json:"Price"`
	Stock    int      `json:"Stock"`
	Category Category `json:"Category"`
}

// Price is a decimal amount rendered as a JSON number that always carries a
// fractional part, so 35 is written as 35.0 and 1200.50 as 1200.5.
type Price struct {
	decimal.Decimal
}

// NewPrice parses s as a decimal. It panics on malformed input and is meant
// for compiled-in literals.
func NewPrice(s string) Price {
	return Price{decimal.RequireFromString(s)}
}

// MarshalJSON implements json.Marshaler.
func (p Price) MarshalJSON() ([]byte, error) {
	s := p.Decimal.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return []byte(s), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(b []byte) error {
	return p.Decimal.UnmarshalJSON(b)
}
