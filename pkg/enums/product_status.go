package enums

import "fmt"

// ProductStatus is the catalog availability state of a product.
type ProductStatus string

const (
	ProductStatusAvailable    ProductStatus = "available"
	ProductStatusOutOfStock   ProductStatus = "out_of_stock"
	ProductStatusDiscontinued ProductStatus = "discontinued"
	ProductStatusPreOrder     ProductStatus = "pre_order"
	ProductStatusBackOrder    ProductStatus = "back_order"
)

var validProductStatuses = []ProductStatus{
	ProductStatusAvailable,
	ProductStatusOutOfStock,
	ProductStatusDiscontinued,
	ProductStatusPreOrder,
	ProductStatusBackOrder,
}

// ProductStatuses returns every known status in declaration order.
func ProductStatuses() []ProductStatus {
	out := make([]ProductStatus, len(validProductStatuses))
	copy(out, validProductStatuses)
	return out
}

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductStatus.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
