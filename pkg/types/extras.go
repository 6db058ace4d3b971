package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ExtraKind discriminates the per-item customization variants.
type ExtraKind string

const (
	ExtraKindLayout     ExtraKind = "layout"
	ExtraKindCutting    ExtraKind = "cutting"
	ExtraKindPrioritize ExtraKind = "prioritize"
)

// LayoutExtra is a paid design/layout service attached to a line item.
type LayoutExtra struct {
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// CuttingExtra is a paid per-piece cutting service attached to a line item.
type CuttingExtra struct {
	Pieces int             `json:"pieces"`
	Price  decimal.Decimal `json:"price"`
}

// PrioritizeExtra flags the item for expedited production. The surcharge itself
// is computed once per order from the total metered quantity, so the variant
// carries no price.
type PrioritizeExtra struct{}

// Extras is the validated, tagged set of customizations on a line item. At most
// one variant of each kind; an untagged JSON blob never crosses this boundary.
type Extras struct {
	Layout     *LayoutExtra     `json:"layout,omitempty"`
	Cutting    *CuttingExtra    `json:"cutting,omitempty"`
	Prioritize *PrioritizeExtra `json:"prioritize,omitempty"`
}

// HasPrioritize reports whether the item opted into expedited production.
func (e Extras) HasPrioritize() bool {
	return e.Prioritize != nil
}

// AdditivePrice sums the strictly additive extras (layout, cutting).
func (e Extras) AdditivePrice() decimal.Decimal {
	total := decimal.Zero
	if e.Layout != nil {
		total = total.Add(e.Layout.Price)
	}
	if e.Cutting != nil {
		total = total.Add(e.Cutting.Price)
	}
	return total
}

// Validate rejects malformed variants at the boundary.
func (e Extras) Validate() error {
	if e.Layout != nil && e.Layout.Price.IsNegative() {
		return fmt.Errorf("layout price cannot be negative")
	}
	if e.Cutting != nil {
		if e.Cutting.Price.IsNegative() {
			return fmt.Errorf("cutting price cannot be negative")
		}
		if e.Cutting.Pieces <= 0 {
			return fmt.Errorf("cutting pieces must be positive")
		}
	}
	return nil
}

// Value implements driver.Valuer so Extras persists as jsonb.
func (e Extras) Value() (driver.Value, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for the jsonb column.
func (e *Extras) Scan(value interface{}) error {
	if value == nil {
		*e = Extras{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("unsupported extras column type %T", value)
	}
}
