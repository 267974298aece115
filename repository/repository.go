package repository

import (
	"context"

	"mediaforge/models"
)

// UserRepository is the persistence contract for user records.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	IncrementAPICounter(ctx context.Context, id int64) error
	SetStripeCustomerID(ctx context.Context, id int64, customerID string) error
}
