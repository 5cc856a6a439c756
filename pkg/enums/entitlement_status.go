package enums

import "fmt"

// EntitlementStatus is the review state of a subscription entitlement.
// A pending entitlement still grants access (trust-first policy); only an
// explicit rejection removes it.
type EntitlementStatus string

const (
	EntitlementStatusPending  EntitlementStatus = "pending"
	EntitlementStatusApproved EntitlementStatus = "approved"
	EntitlementStatusRejected EntitlementStatus = "rejected"
)

var validEntitlementStatuses = []EntitlementStatus{
	EntitlementStatusPending,
	EntitlementStatusApproved,
	EntitlementStatusRejected,
}

// String implements fmt.Stringer.
func (s EntitlementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EntitlementStatus.
func (s EntitlementStatus) IsValid() bool {
	for _, candidate := range validEntitlementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// GrantsAccess reports whether the status by itself permits access.
func (s EntitlementStatus) GrantsAccess() bool {
	return s == EntitlementStatusApproved || s == EntitlementStatusPending
}

// ParseEntitlementStatus converts raw input into an EntitlementStatus.
func ParseEntitlementStatus(value string) (EntitlementStatus, error) {
	for _, candidate := range validEntitlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entitlement status %q", value)
}
