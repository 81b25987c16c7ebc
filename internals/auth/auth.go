package auth

import (
	"context"

	"github.com/mclc/mclc/internals/minecraft"
)

// AuthProvider is an identity source that can produce the fields the
// launch assembler needs
type AuthProvider interface {
	// Prompt asks the user to authenticate
	Prompt(ctx context.Context) error
	// LaunchAuthData returns the auth data needed to launch the game,
	// refreshing cached credentials when possible
	LaunchAuthData(ctx context.Context) (minecraft.LaunchAuthData, error)
}
