package enums

import "fmt"

// RestorePolicy controls how much stock is returned when a cart entry is removed.
type RestorePolicy string

const (
	// RestorePolicyQuantity returns exactly the quantity the entry reserved.
	RestorePolicyQuantity RestorePolicy = "quantity"
	// RestorePolicyUnit returns a single unit regardless of the entry quantity.
	RestorePolicyUnit RestorePolicy = "unit"
)

var validRestorePolicies = []RestorePolicy{
	RestorePolicyQuantity,
	RestorePolicyUnit,
}

// String implements fmt.Stringer.
func (p RestorePolicy) String() string {
	return string(p)
}

// IsValid reports whether the value is a known RestorePolicy.
func (p RestorePolicy) IsValid() bool {
	for _, candidate := range validRestorePolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseRestorePolicy converts raw input into a RestorePolicy.
func ParseRestorePolicy(value string) (RestorePolicy, error) {
	for _, candidate := range validRestorePolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid restore policy %q", value)
}

// RestoreQuantity returns the stock to give back for an entry that reserved qty units.
func (p RestorePolicy) RestoreQuantity(qty int) int {
	if p == RestorePolicyUnit {
		return 1
	}
	if qty < 1 {
		return 1
	}
	return qty
}
