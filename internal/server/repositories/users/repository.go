package users

import (
	"context"

	"github.com/dmitrijs2005/focussync/internal/server/models"
)

type Repository interface {
	// Create inserts user, assigning ID and CreatedAt. A taken email yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
