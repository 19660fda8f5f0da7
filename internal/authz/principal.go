package authz

import "strings"

// Principal is the already-authenticated caller identity the request handlers
// hand to every registry operation.
type Principal struct {
	Username string
	IsAdmin  bool
}

// NewPrincipal normalizes the username; all comparisons are case-insensitive.
func NewPrincipal(username string, isAdmin bool) Principal {
	return Principal{Username: strings.ToLower(username), IsAdmin: isAdmin}
}
