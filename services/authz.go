package services

import (
	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
)

// Intent names a class of mutating floor actions for authorization.
type Intent string

const (
	IntentManageTables Intent = "manage_tables"
	IntentTakeOrder    Intent = "take_order"
	IntentAdvanceOrder Intent = "advance_order"
	IntentCancelOrder  Intent = "cancel_order"
	IntentSettle       Intent = "settle"
	IntentAdminister   Intent = "administer"
)

// Authorizer decides whether actor may perform intent.
type Authorizer interface {
	Authorize(actor models.Actor, intent Intent) error
}

// RoleAuthorizer grants each intent to a fixed set of roles. Admins may do anything.
type RoleAuthorizer map[Intent][]string

func DefaultRoleAuthorizer() RoleAuthorizer {
	return RoleAuthorizer{
		IntentManageTables: {models.RoleStaff},
		IntentTakeOrder:    {models.RoleStaff},
		IntentAdvanceOrder: {models.RoleStaff, models.RoleChef},
		IntentCancelOrder:  {models.RoleStaff},
		IntentSettle:       {models.RoleStaff, models.RoleCashier},
		IntentAdminister:   nil,
	}
}

func (a RoleAuthorizer) Authorize(actor models.Actor, intent Intent) error {
	if actor.UserID == 0 {
		return apperror.Forbidden("no authenticated user for %s", intent)
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	for _, role := range a[intent] {
		if role == actor.Role {
			return nil
		}
	}
	return apperror.Forbidden("role %q may not %s", actor.Role, intent)
}
