package enums

import "fmt"

// OptimizationStatus records how an optimizer run ended.
type OptimizationStatus string

const (
	OptimizationStatusSucceeded OptimizationStatus = "succeeded"
	OptimizationStatusFailed    OptimizationStatus = "failed"
)

var validOptimizationStatuses = []OptimizationStatus{
	OptimizationStatusSucceeded,
	OptimizationStatusFailed,
}

// String implements fmt.Stringer.
func (s OptimizationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OptimizationStatus.
func (s OptimizationStatus) IsValid() bool {
	for _, candidate := range validOptimizationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOptimizationStatus converts raw input into an OptimizationStatus.
func ParseOptimizationStatus(value string) (OptimizationStatus, error) {
	for _, candidate := range validOptimizationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid optimization status %q", value)
}
