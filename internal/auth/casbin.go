package auth

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var casbinModelContent string

// Objects enforced by the authorization layer. These are route classes,
// not URLs; the middleware maps requests onto them.
const (
	ObjectCatalog  = "catalog"
	ObjectProgress = "progress"
	ObjectRequests = "access-requests"
	ObjectAdmin    = "admin"
)

// Actions enforced by the authorization layer.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionManage = "manage"
)

// RoleStudent is the implicit role of every authenticated account.
const RoleStudent = "student"

// InitEnforcer creates a Casbin enforcer with the embedded RBAC model and
// the platform's fixed policy set. Role membership comes from the request
// principal (resolved from user_roles at authentication time), so the
// enforcer itself is static and safe to share.
func InitEnforcer() (casbin.IEnforcer, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	policies := [][]string{
		{RoleStudent, ObjectCatalog, ActionRead},
		{RoleStudent, ObjectProgress, ActionRead},
		{RoleStudent, ObjectProgress, ActionWrite},
		{RoleStudent, ObjectRequests, ActionWrite},
		{"admin", "*", "*"},
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("seed casbin policies: %w", err)
	}

	// Admins inherit the student surface.
	if _, err := enforcer.AddGroupingPolicy("admin", RoleStudent); err != nil {
		return nil, fmt.Errorf("seed casbin role hierarchy: %w", err)
	}

	return enforcer, nil
}

// Authorize checks whether any of the principal's roles permit the action.
// Authenticated users always carry the implicit student role.
func Authorize(enforcer casbin.IEnforcer, principal Principal, object, action string) (bool, error) {
	roles := append([]string{RoleStudent}, principal.Roles...)
	for _, role := range roles {
		ok, err := enforcer.Enforce(role, object, action)
		if err != nil {
			return false, fmt.Errorf("enforce %s on %s/%s: %w", role, object, action, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
