package denomination

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Vector counts notes per denomination. The same embedded columns back the
// vault, vault movements, client movements and ATM loadings.
type Vector struct {
	Ones         int64 `gorm:"column:ones;not null;default:0" json:"ones"`
	Fives        int64 `gorm:"column:fives;not null;default:0" json:"fives"`
	Tens         int64 `gorm:"column:tens;not null;default:0" json:"tens"`
	Twenties     int64 `gorm:"column:twenties;not null;default:0" json:"twenties"`
	Forties      int64 `gorm:"column:forties;not null;default:0" json:"forties"`
	Fifties      int64 `gorm:"column:fifties;not null;default:0" json:"fifties"`
	Hundreds     int64 `gorm:"column:hundreds;not null;default:0" json:"hundreds"`
	TwoHundreds  int64 `gorm:"column:two_hundreds;not null;default:0" json:"twoHundreds"`
	FiveHundreds int64 `gorm:"column:five_hundreds;not null;default:0" json:"fiveHundreds"`
	Thousands    int64 `gorm:"column:thousands;not null;default:0" json:"thousands"`
}

// Denomination describes one note value and how to reach its count.
type Denomination struct {
	Name      string
	Column    string
	FaceValue int64
	get       func(*Vector) *int64
}

// Count returns the count of this denomination inside v.
func (d Denomination) Count(v Vector) int64 {
	return *d.get(&v)
}

// All lists the ten denominations in ascending face value.
var All = []Denomination{
	{Name: "ones", Column: "ones", FaceValue: 1, get: func(v *Vector) *int64 { return &v.Ones }},
	{Name: "fives", Column: "fives", FaceValue: 5, get: func(v *Vector) *int64 { return &v.Fives }},
	{Name: "tens", Column: "tens", FaceValue: 10, get: func(v *Vector) *int64 { return &v.Tens }},
	{Name: "twenties", Column: "twenties", FaceValue: 20, get: func(v *Vector) *int64 { return &v.Twenties }},
	{Name: "forties", Column: "forties", FaceValue: 40, get: func(v *Vector) *int64 { return &v.Forties }},
	{Name: "fifties", Column: "fifties", FaceValue: 50, get: func(v *Vector) *int64 { return &v.Fifties }},
	{Name: "hundreds", Column: "hundreds", FaceValue: 100, get: func(v *Vector) *int64 { return &v.Hundreds }},
	{Name: "twoHundreds", Column: "two_hundreds", FaceValue: 200, get: func(v *Vector) *int64 { return &v.TwoHundreds }},
	{Name: "fiveHundreds", Column: "five_hundreds", FaceValue: 500, get: func(v *Vector) *int64 { return &v.FiveHundreds }},
	{Name: "thousands", Column: "thousands", FaceValue: 1000, get: func(v *Vector) *int64 { return &v.Thousands }},
}

// WeightedSum returns Σ count × face value.
func (v Vector) WeightedSum() decimal.Decimal {
	var total int64
	for _, d := range All {
		total += d.Count(v) * d.FaceValue
	}
	return decimal.NewFromInt(total)
}

// Add returns v + o component-wise.
func (v Vector) Add(o Vector) Vector {
	return combine(v, o, func(a, b int64) int64 { return a + b })
}

// Sub returns v - o component-wise. The result may hold negative counts;
// callers check IsNonNegative before committing it.
func (v Vector) Sub(o Vector) Vector {
	return combine(v, o, func(a, b int64) int64 { return a - b })
}

// Neg flips the sign of every component.
func (v Vector) Neg() Vector {
	return Vector{}.Sub(v)
}

// IsNonNegative reports whether every component is >= 0.
func (v Vector) IsNonNegative() bool {
	return len(v.NegativeFields()) == 0
}

// IsZero reports whether every component is 0.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

// NegativeFields lists the JSON names of the components below zero.
func (v Vector) NegativeFields() []string {
	var fields []string
	for _, d := range All {
		if d.Count(v) < 0 {
			fields = append(fields, d.Name)
		}
	}
	return fields
}

// Counts returns the vector as a name -> count map, omitting zeros.
func (v Vector) Counts() map[string]int64 {
	out := map[string]int64{}
	for _, d := range All {
		if c := d.Count(v); c != 0 {
			out[d.Name] = c
		}
	}
	return out
}

// Columns returns the vector keyed by column name, zeros included, for
// column-wise updates.
func (v Vector) Columns() map[string]any {
	out := make(map[string]any, len(All))
	for _, d := range All {
		out[d.Column] = d.Count(v)
	}
	return out
}

// Validate rejects input vectors with negative counts.
func (v Vector) Validate() error {
	if fields := v.NegativeFields(); len(fields) > 0 {
		return fmt.Errorf("negative note counts: %v", fields)
	}
	return nil
}

// Sum folds a list of vectors.
func Sum(vectors ...Vector) Vector {
	var out Vector
	for _, v := range vectors {
		out = out.Add(v)
	}
	return out
}

func combine(a, b Vector, op func(int64, int64) int64) Vector {
	var out Vector
	for _, d := range All {
		*d.get(&out) = op(*d.get(&a), *d.get(&b))
	}
	return out
}
