package models

import (
	"strings"

	"github.com/atinyakov/storefront/internal/apperr"
)

// Permission is a role tag granting a capability.
type Permission string

const (
	// PermissionAdmin grants every capability.
	PermissionAdmin Permission = "ADMIN"
	// PermissionUser is granted to every account at signup.
	PermissionUser Permission = "USER"
	// PermissionItemCreate allows listing new items.
	PermissionItemCreate Permission = "ITEMCREATE"
	// PermissionItemUpdate allows editing items owned by others.
	PermissionItemUpdate Permission = "ITEMUPDATE"
	// PermissionItemDelete allows deleting items owned by others.
	PermissionItemDelete Permission = "ITEMDELETE"
	// PermissionPermissionUpdate allows changing other users' permissions.
	PermissionPermissionUpdate Permission = "PERMISSIONUPDATE"
)

// AllPermissions lists every known permission in display order.
func AllPermissions() []Permission {
	return []Permission{
		PermissionAdmin,
		PermissionUser,
		PermissionItemCreate,
		PermissionItemUpdate,
		PermissionItemDelete,
		PermissionPermissionUpdate,
	}
}

// Valid reports whether p is one of the known permissions.
func (p Permission) Valid() bool {
	for _, known := range AllPermissions() {
		if p == known {
			return true
		}
	}
	return false
}

// HasPermission reports whether granted and required share at least one
// permission. Any single match suffices.
func HasPermission(granted []Permission, required ...Permission) bool {
	set := make(map[Permission]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

// CheckPermission returns an AuthorizationError when user holds none of the
// required permissions.
func CheckPermission(user *User, required ...Permission) error {
	if user != nil && HasPermission(user.Permissions, required...) {
		return nil
	}
	var granted []Permission
	if user != nil {
		granted = user.Permissions
	}
	return apperr.Authorization("you do not have sufficient permissions: need one of %s, have %s",
		joinPermissions(required), joinPermissions(granted))
}

// ParsePermissions converts raw strings into permissions, rejecting unknown
// values and collapsing duplicates.
func ParsePermissions(raw []string) ([]Permission, error) {
	seen := make(map[Permission]struct{}, len(raw))
	out := make([]Permission, 0, len(raw))
	for _, r := range raw {
		p := Permission(strings.ToUpper(strings.TrimSpace(r)))
		if !p.Valid() {
			return nil, apperr.Validation("unknown permission %q", r)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func joinPermissions(perms []Permission) string {
	if len(perms) == 0 {
		return "[]"
	}
	parts := make([]string, len(perms))
	for i, p := range perms {
		parts[i] = string(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
