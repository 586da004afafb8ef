package auth

import "slices"

type Role string

const (
	RoleVisitor Role = "Visitor"
	RoleCreator Role = "Creator"
	RoleAdmin   Role = "Admin"
)

var Roles = []Role{RoleVisitor, RoleCreator, RoleAdmin}

func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// Staff are the roles allowed to author content.
var Staff = []Role{RoleCreator, RoleAdmin}
