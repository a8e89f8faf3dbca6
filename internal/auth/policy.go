package auth

// Capability names a permission a request must hold.
type Capability string

const (
	// CapAdminOnly allows admins.
	CapAdminOnly Capability = "admin_only"
	// CapAdminOrManager allows admins and managers.
	CapAdminOrManager Capability = "admin_or_manager"
	// CapUpdateOwnTask allows the task's assignee, whatever their role.
	CapUpdateOwnTask Capability = "update_own_task"
)

// Assignable is implemented by resources owned through assignment (tasks).
type Assignable interface {
	AssigneeID() string
}

// predicate decides a capability for a non-nil user and an optional resource.
type predicate func(user *User, resource any) bool

// policies is the single source of truth for authorisation decisions.
var policies = map[Capability]predicate{
	CapAdminOnly: func(u *User, _ any) bool {
		return u.Role == RoleAdmin
	},
	CapAdminOrManager: func(u *User, _ any) bool {
		return u.Role == RoleAdmin || u.Role == RoleManager
	},
	CapUpdateOwnTask: func(u *User, resource any) bool {
		a, ok := resource.(Assignable)
		return ok && u.ID != "" && a.AssigneeID() == u.ID
	},
}

// Authorize returns nil when user holds c for resource and ErrForbidden
// otherwise. A nil user or an unknown capability is always denied.
func Authorize(user *User, c Capability, resource any) error {
	if user == nil {
		return ErrForbidden
	}
	allow, ok := policies[c]
	if !ok || !allow(user, resource) {
		return ErrForbidden
	}
	return nil
}
