package rbac

import (
	"errors"
	"testing"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleUser, PermissionWriteAchieve, true},
		{RoleUser, PermissionReplayOutbox, false},
		{RoleAdmin, PermissionReplayOutbox, true},
		{RoleAdmin, PermissionReadProject, true},
		{"guest", PermissionReadProject, false},
	}

	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.permission); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.permission, got, tt.want)
		}
	}
}

func TestCheckPermissionReturnsTypedError(t *testing.T) {
	err := CheckPermission(RoleUser, PermissionReplayOutbox)
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected PermissionDeniedError, got %v", err)
	}
	if denied.Permission != PermissionReplayOutbox {
		t.Errorf("unexpected permission %q", denied.Permission)
	}
	if err := CheckPermission(RoleAdmin, PermissionReplayOutbox); err != nil {
		t.Errorf("admin should be allowed, got %v", err)
	}
}

func TestAdminPermissionsDoNotLeakIntoUser(t *testing.T) {
	for _, p := range rolePermissions[RoleUser] {
		if p == PermissionReplayOutbox {
			t.Fatal("user role must not carry outbox:replay")
		}
	}
}
