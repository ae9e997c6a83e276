package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Quantity is a nullable decimal reading (litres, percent, LAL or density).
// The zero value is null.
type Quantity struct {
	n decimal.NullDecimal
}

// Null returns a null quantity
func Null() Quantity {
	return Quantity{}
}

// QuantityOf converts a float reading. NaN and infinities become null so they
// never reach downstream arithmetic.
func QuantityOf(f float64) Quantity {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Quantity{}
	}
	return Quantity{n: decimal.NewNullDecimal(decimal.NewFromFloat(f))}
}

// QuantityFromDecimal wraps a decimal value
func QuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity{n: decimal.NewNullDecimal(d)}
}

// ParseQuantity parses a textual reading. Empty strings, "null", NaN and
// infinities are null.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	switch strings.TrimLeft(strings.ToLower(s), "+-") {
	case "", "null", "nan", ".nan", "inf", ".inf", "infinity":
		return Quantity{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return QuantityFromDecimal(d), nil
}

// MustQuantity parses s and panics on error. Intended for fixtures.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

// Valid reports whether the quantity holds a value
func (q Quantity) Valid() bool {
	return q.n.Valid
}

// IsNull reports whether the quantity is null
func (q Quantity) IsNull() bool {
	return !q.n.Valid
}

// Decimal returns the underlying value, zero when null
func (q Quantity) Decimal() decimal.Decimal {
	if !q.n.Valid {
		return decimal.Zero
	}
	return q.n.Decimal
}

// Float64 returns the value as a float and whether it was present
func (q Quantity) Float64() (float64, bool) {
	if !q.n.Valid {
		return 0, false
	}
	return q.n.Decimal.InexactFloat64(), true
}

// Equal reports whether both quantities are null or hold equal values
func (q Quantity) Equal(other Quantity) bool {
	if q.n.Valid != other.n.Valid {
		return false
	}
	return !q.n.Valid || q.n.Decimal.Equal(other.n.Decimal)
}

// IsNegative reports whether the quantity holds a value below zero
func (q Quantity) IsNegative() bool {
	return q.n.Valid && q.n.Decimal.IsNegative()
}

// Round returns the quantity rounded to places, null stays null
func (q Quantity) Round(places int32) Quantity {
	if !q.n.Valid {
		return q
	}
	return QuantityFromDecimal(q.n.Decimal.Round(places))
}

// String renders the value, or "null"
func (q Quantity) String() string {
	if !q.n.Valid {
		return "null"
	}
	return q.n.Decimal.String()
}

// StringFixed renders the value with a fixed number of places, or "-" when null
func (q Quantity) StringFixed(places int32) string {
	if !q.n.Valid {
		return "-"
	}
	return q.n.Decimal.StringFixed(places)
}

// MarshalJSON writes the value as a JSON number or null
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.n.Valid {
		return []byte("null"), nil
	}
	return []byte(q.n.Decimal.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = Quantity{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseQuantity(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}
	parsed, err := ParseQuantity(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// MarshalYAML writes the value as a YAML float or null
func (q Quantity) MarshalYAML() (interface{}, error) {
	if !q.n.Valid {
		return nil, nil
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: q.n.Decimal.String()}, nil
}

// UnmarshalYAML accepts scalar numbers and null
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: quantity must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*q = Quantity{}
		return nil
	}
	parsed, err := ParseQuantity(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*q = parsed
	return nil
}
