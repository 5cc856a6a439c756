package approval

import (
	"slices"

	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
)

// Action is a decision taken against a pending purchase or request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

var validActions = []Action{ActionApprove, ActionReject, ActionCancel}

// IsValid reports whether the action is one of the known decisions.
func (a Action) IsValid() bool {
	return slices.Contains(validActions, a)
}

// ParseAction converts raw input into an Action.
func ParseAction(value string) (Action, error) {
	for _, candidate := range validActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve, reject, or cancel")
}

type transition struct {
	From   enums.PurchaseStatus
	Action Action
}

// transitions defines every allowed status change. Anything absent is either
// an idempotent replay (action already landed) or a conflict.
var transitions = map[transition]enums.PurchaseStatus{
	{enums.PurchaseStatusPending, ActionApprove}: enums.PurchaseStatusApproved,
	{enums.PurchaseStatusPending, ActionReject}:  enums.PurchaseStatusRejected,
	{enums.PurchaseStatusPending, ActionCancel}:  enums.PurchaseStatusCancelled,
}

// replays maps terminal statuses back to the action that produced them, so a
// retried decision succeeds without touching the row again.
var replays = map[enums.PurchaseStatus]Action{
	enums.PurchaseStatusApproved:  ActionApprove,
	enums.PurchaseStatusRejected:  ActionReject,
	enums.PurchaseStatusCancelled: ActionCancel,
}

// Result describes the outcome of applying an action to a status.
type Result struct {
	Next enums.PurchaseStatus
	// Noop is true when the action already landed and nothing should change.
	Noop bool
}

// Decide applies an action to the current status. A repeat of the decision
// that produced the current status is a no-op success; any other action on a
// terminal status is a conflict.
func Decide(current enums.PurchaseStatus, action Action) (Result, error) {
	if !action.IsValid() {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve, reject, or cancel")
	}

	if next, ok := transitions[transition{current, action}]; ok {
		return Result{Next: next}, nil
	}

	if landed, ok := replays[current]; ok && landed == action {
		return Result{Next: current, Noop: true}, nil
	}

	return Result{}, pkgerrors.New(pkgerrors.CodeConflict, "decision not allowed in current state").
		WithDetails(map[string]string{
			"status": current.String(),
			"action": string(action),
		})
}

// AllowedActions returns the actions that would change the given status.
func AllowedActions(current enums.PurchaseStatus) []Action {
	actions := make([]Action, 0, len(validActions))
	for t := range transitions {
		if t.From == current {
			actions = append(actions, t.Action)
		}
	}
	slices.Sort(actions)
	return actions
}
