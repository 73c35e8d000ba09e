package models

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// CanEditItems reports whether the role may add or remove list items.
func (r Role) CanEditItems() bool {
	return r == RoleOwner || r == RoleEditor
}

// CanManage reports whether the role may rename or delete the list and remove members.
func (r Role) CanManage() bool {
	return r == RoleOwner
}

// ParseInviteRole maps the role carried by an invite link to a joinable role.
// Anything other than editor, including owner, joins as viewer.
func ParseInviteRole(s string) Role {
	if Role(s) == RoleEditor {
		return RoleEditor
	}
	return RoleViewer
}
