package models

import (
	"time"
)

// Principal is the authenticated identity carried through a request.
type Principal struct {
	Username string `json:"username"`
	ID       int64  `json:"id"`
}

type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	HashedPassword   string    `json:"-"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	StripeCustomerID string    `json:"stripe_customer_id,omitempty"`
	AIAPICounter     int64     `json:"ai_api_counter"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserResponse is the profile shape returned by the users endpoint.
type UserResponse struct {
	Username         string `json:"username"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	StripeCustomerID string `json:"stripe_customer_id,omitempty"`
	AIAPICounter     int64  `json:"ai_api_counter"`
}

func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		Username:         u.Username,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		StripeCustomerID: u.StripeCustomerID,
		AIAPICounter:     u.AIAPICounter,
	}
}
