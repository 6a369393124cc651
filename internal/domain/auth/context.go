package auth

// UserContext is the verified identity attached to an authenticated request.
type UserContext struct {
	UserID string
	Email  string
	Name   string
	Role   Role
}

func (u UserContext) IsAdmin() bool {
	return IsAdmin(u.Role)
}

func (u UserContext) CanApprove() bool {
	return CanApprove(u.Role)
}

func FromClaims(c *Claims) UserContext {
	return UserContext{UserID: c.UserID, Email: c.Email, Name: c.Name, Role: c.Role}
}
