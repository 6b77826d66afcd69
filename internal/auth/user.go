package auth

import (
	"context"
)

type userKeyType struct{}

var userKey userKeyType

type User struct {
	Username     string
	Organization string
}

func UserFromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return User{}, false
	}
	return val.(User), true
}

// MustHaveUser returns the user stored in the context. It panics if the
// identity middleware did not run, which is a programming error.
func MustHaveUser(ctx context.Context) User {
	user, found := UserFromContext(ctx)
	if !found {
		panic("middleware: missing user in context")
	}
	return user
}

func NewUserContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
