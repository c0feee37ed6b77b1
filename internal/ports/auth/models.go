package auth

// Claims representa la identidad autenticada del request.
type Claims struct {
	UserID string
	Email  string
	Phone  string
	Roles  []string
}

func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
