package inventory

import (
	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/product"
)

// Action is the seller intent behind a status change.
type Action string

const (
	ActionPublish   Action = "publish"
	ActionArchive   Action = "archive"
	ActionUnarchive Action = "unarchive"
	ActionDraft     Action = "draft"
)

// RequiresVerification reports whether the action needs a one-time code.
func (a Action) RequiresVerification() bool {
	return a == ActionArchive || a == ActionUnarchive
}

// ParseVerifiableAction accepts only the actions a code can be issued for.
func ParseVerifiableAction(raw string) (Action, error) {
	a := Action(raw)
	if !a.RequiresVerification() {
		return "", common.ValidationError("action", "action must be archive or unarchive")
	}
	return a, nil
}

var transitions = map[product.Status]map[product.Status]Action{
	product.StatusDraft: {
		product.StatusActive: ActionPublish,
	},
	product.StatusActive: {
		product.StatusArchived: ActionArchive,
		product.StatusDraft:    ActionDraft,
	},
	product.StatusArchived: {
		product.StatusDraft: ActionUnarchive,
	},
}

// Transition validates from → to and returns the action it represents.
func Transition(from, to product.Status) (Action, error) {
	if !to.Valid() {
		return "", common.ValidationError("status", "unknown status "+string(to))
	}
	if action, ok := transitions[from][to]; ok {
		return action, nil
	}
	return "", common.InvalidTransitionError(string(from), string(to))
}

// TargetFor is the status an action leads to.
func TargetFor(a Action) product.Status {
	switch a {
	case ActionPublish:
		return product.StatusActive
	case ActionArchive:
		return product.StatusArchived
	default:
		return product.StatusDraft
	}
}
