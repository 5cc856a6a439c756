package enums

import "fmt"

// ChangeRequestKind is the action a subscriber asks an admin to apply.
type ChangeRequestKind string

const (
	ChangeRequestKindCancel    ChangeRequestKind = "cancel"
	ChangeRequestKindDowngrade ChangeRequestKind = "downgrade"
)

var validChangeRequestKinds = []ChangeRequestKind{
	ChangeRequestKindCancel,
	ChangeRequestKindDowngrade,
}

// String implements fmt.Stringer.
func (k ChangeRequestKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ChangeRequestKind.
func (k ChangeRequestKind) IsValid() bool {
	for _, candidate := range validChangeRequestKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseChangeRequestKind converts raw input into a ChangeRequestKind.
func ParseChangeRequestKind(value string) (ChangeRequestKind, error) {
	for _, candidate := range validChangeRequestKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid change request kind %q", value)
}
