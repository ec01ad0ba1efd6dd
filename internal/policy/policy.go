// Package policy holds the single authorization rule table for design
// requests and categories.
package policy

import (
	"atelier/internal/models"
)

// Action is an operation gated by Authorize.
type Action string

const (
	ActionSubmit           Action = "submit"
	ActionTransition       Action = "transition"
	ActionDelete           Action = "delete"
	ActionView             Action = "view"
	ActionListOwn          Action = "list_own"
	ActionListAll          Action = "list_all"
	ActionManageCategories Action = "manage_categories"
)

// Actor is the authenticated identity an operation runs as.
type Actor struct {
	UserID  uint
	IsStaff bool
}

// ActorFor builds an Actor from a loaded user.
func ActorFor(u *models.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.ID, IsStaff: u.IsStaff}
}

// Resource describes the target of an action. OwnerID and Status are only
// consulted by request-scoped actions.
type Resource struct {
	OwnerID uint
	Status  models.RequestStatus
}

// ForRequest builds the Resource for an existing request.
func ForRequest(r *models.DesignRequest) Resource {
	return Resource{OwnerID: r.OwnerID, Status: r.Status}
}

// Authorize returns nil when actor may perform action on res. Denials are
// *models.AppError values with code FORBIDDEN, or INVALID_STATE when only
// the request status blocks the action.
func Authorize(actor Actor, action Action, res Resource) error {
	if actor.UserID == 0 {
		return models.NewForbiddenError("Authentication required")
	}

	switch action {
	case ActionSubmit:
		if actor.IsStaff {
			return models.NewForbiddenError("Staff accounts cannot submit design requests")
		}
		return nil

	case ActionTransition, ActionListAll, ActionManageCategories:
		if !actor.IsStaff {
			return models.NewForbiddenError("Staff access required")
		}
		return nil

	case ActionDelete:
		if !actor.IsStaff && actor.UserID != res.OwnerID {
			return models.NewForbiddenError("Only the owner or staff may delete this request")
		}
		if res.Status != models.RequestStatusNew {
			return models.NewInvalidStateError("Only new requests can be deleted")
		}
		return nil

	case ActionView:
		if actor.IsStaff || actor.UserID == res.OwnerID {
			return nil
		}
		return models.NewForbiddenError("You do not have access to this request")

	case ActionListOwn:
		if actor.UserID != res.OwnerID {
			return models.NewForbiddenError("You can only list your own requests")
		}
		return nil
	}

	return models.NewForbiddenError("Unknown action")
}
