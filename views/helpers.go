package views

import (
	"context"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/middleware"
	users "github.com/AdamBeresnev/ultimate-tournaments/internal/user"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}
