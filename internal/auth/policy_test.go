package auth

import (
	"errors"
	"testing"
)

type task struct{ assignee string }

func (t task) AssigneeID() string { return t.assignee }

func TestAuthorize_RoleCapabilities(t *testing.T) {
	admin := &User{ID: "usr-a", Role: RoleAdmin}
	manager := &User{ID: "usr-m", Role: RoleManager}
	member := &User{ID: "usr-u", Role: RoleMember}

	tests := []struct {
		user  *User
		cap   Capability
		allow bool
	}{
		{admin, CapAdminOnly, true},
		{manager, CapAdminOnly, false},
		{member, CapAdminOnly, false},
		{admin, CapAdminOrManager, true},
		{manager, CapAdminOrManager, true},
		{member, CapAdminOrManager, false},
	}

	for _, tt := range tests {
		t.Run(tt.user.Role.String()+"/"+string(tt.cap), func(t *testing.T) {
			err := Authorize(tt.user, tt.cap, nil)
			if tt.allow && err != nil {
				t.Errorf("Authorize() error = %v, want allow", err)
			}
			if !tt.allow && !errors.Is(err, ErrForbidden) {
				t.Errorf("Authorize() error = %v, want ErrForbidden", err)
			}
		})
	}
}

// Only the assignee may update a task, whatever their role.
func TestAuthorize_UpdateOwnTask(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		resource any
		allow    bool
	}{
		{"member assignee", &User{ID: "usr-1", Role: RoleMember}, task{"usr-1"}, true},
		{"manager assignee", &User{ID: "usr-2", Role: RoleManager}, task{"usr-2"}, true},
		{"admin not assignee", &User{ID: "usr-3", Role: RoleAdmin}, task{"usr-1"}, false},
		{"manager not assignee", &User{ID: "usr-2", Role: RoleManager}, task{"usr-1"}, false},
		{"empty user id", &User{Role: RoleMember}, task{""}, false},
		{"resource not assignable", &User{ID: "usr-1", Role: RoleMember}, "usr-1", false},
		{"nil resource", &User{ID: "usr-1", Role: RoleMember}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.user, CapUpdateOwnTask, tt.resource)
			if (err == nil) != tt.allow {
				t.Errorf("Authorize() error = %v, allow %v", err, tt.allow)
			}
		})
	}
}

func TestAuthorize_DeniesByDefault(t *testing.T) {
	if err := Authorize(nil, CapAdminOrManager, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("Authorize(nil user) error = %v, want ErrForbidden", err)
	}
	admin := &User{ID: "usr-a", Role: RoleAdmin}
	if err := Authorize(admin, Capability("delete_everything"), nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("Authorize(unknown capability) error = %v, want ErrForbidden", err)
	}
	if err := Authorize(&User{ID: "x", Role: 9}, CapAdminOrManager, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("Authorize(invalid role) error = %v, want ErrForbidden", err)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"Manager", RoleManager, false},
		{" MEMBER ", RoleMember, false},
		{"owner", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRole) {
				t.Errorf("ParseRole(%q) error = %v, want ErrInvalidRole", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRole_String(t *testing.T) {
	if RoleAdmin.String() != "admin" || RoleMember.String() != "member" {
		t.Errorf("unexpected role names %q %q", RoleAdmin, RoleMember)
	}
	if got := Role(9).String(); got != "role(9)" {
		t.Errorf("Role(9).String() = %q", got)
	}
	if Role(0).Valid() {
		t.Error("Role(0) should not be valid")
	}
}
