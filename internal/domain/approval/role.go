package approval

// Role is the closed set of authority levels a principal can hold.
type Role string

const (
	RolePropertyManager Role = "PROPERTY_MANAGER"
	RoleMD              Role = "MD"
	RoleAccounts        Role = "ACCOUNTS"
	RoleAdmin           Role = "ADMIN"
	RoleCEO             Role = "CEO"
)

var validRoles = map[Role]bool{
	RolePropertyManager: true,
	RoleMD:              true,
	RoleAccounts:        true,
	RoleAdmin:           true,
	RoleCEO:             true,
}

// IsValid returns true if the role is one of the defined constants.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
