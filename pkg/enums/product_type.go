package enums

import "fmt"

// ProductType distinguishes how a product is priced and fulfilled.
type ProductType string

const (
	// ProductTypeMeteredFabric is printed fabric sold by the meter with tiered pricing.
	ProductTypeMeteredFabric ProductType = "metered_fabric"
	// ProductTypeVoucher is a purchasable prepaid bundle of meters and shipments.
	ProductTypeVoucher ProductType = "voucher"
	// ProductTypeConsumable is a flat-priced accessory (inks, blanks, samples).
	ProductTypeConsumable ProductType = "consumable"
)

var validProductTypes = []ProductType{
	ProductTypeMeteredFabric,
	ProductTypeVoucher,
	ProductTypeConsumable,
}

// String implements fmt.Stringer.
func (p ProductType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductType.
func (p ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsMetered reports whether quantities of this product count toward metered totals.
func (p ProductType) IsMetered() bool {
	return p == ProductTypeMeteredFabric
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
