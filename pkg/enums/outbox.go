package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregatePackPurchase         OutboxAggregateType = "pack_purchase"
	AggregateSubscriptionPurchase OutboxAggregateType = "subscription_purchase"
	AggregateChangeRequest        OutboxAggregateType = "change_request"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePackPurchase,
	AggregateSubscriptionPurchase,
	AggregateChangeRequest,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventPurchaseRequested        OutboxEventType = "purchase_requested"
	EventPurchaseApproved         OutboxEventType = "purchase_approved"
	EventPurchaseRejected         OutboxEventType = "purchase_rejected"
	EventSubscriptionRequested    OutboxEventType = "subscription_requested"
	EventSubscriptionApproved     OutboxEventType = "subscription_approved"
	EventSubscriptionRejected     OutboxEventType = "subscription_rejected"
	EventChangeRequestFiled       OutboxEventType = "change_request_filed"
	EventChangeRequestResolved    OutboxEventType = "change_request_resolved"
	EventSubscriptionTierChanged  OutboxEventType = "subscription_tier_changed"
	EventSubscriptionCancelled    OutboxEventType = "subscription_cancelled"
	EventEntitlementRevoked       OutboxEventType = "entitlement_revoked"
	EventEntitlementGrantedManual OutboxEventType = "entitlement_granted_manual"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPurchaseRequested,
	EventPurchaseApproved,
	EventPurchaseRejected,
	EventSubscriptionRequested,
	EventSubscriptionApproved,
	EventSubscriptionRejected,
	EventChangeRequestFiled,
	EventChangeRequestResolved,
	EventSubscriptionTierChanged,
	EventSubscriptionCancelled,
	EventEntitlementRevoked,
	EventEntitlementGrantedManual,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
