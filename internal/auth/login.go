package auth

import (
	"errors"

	"github.com/taskvault/taskvault/internal/store"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("auth: invalid username or password")

// Credentials is a submitted username/password pair.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserFinder looks users up by name. *store.Store satisfies it.
type UserFinder interface {
	UserByName(username string) (store.User, bool)
}

// Login returns the stored user matching c, or ErrInvalidCredentials.
func Login(f UserFinder, c Credentials) (store.User, error) {
	u, ok := f.UserByName(c.Username)
	if !ok || u.Password != c.Password {
		return store.User{}, ErrInvalidCredentials
	}
	return u, nil
}
