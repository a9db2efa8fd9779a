package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// User is an authenticated account as returned by /api/me.
type User struct {
	ID        uuid.UUID `json:"id"`
	Provider  string    `json:"provider"`
	Subject   string    `json:"-"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SocialIdentity is what an OAuth provider tells us about the signed-in account.
type SocialIdentity struct {
	Provider string `validate:"required,oneof=google kakao"`
	Subject  string `validate:"required"`
	Email    string `validate:"omitempty,email"`
	Name     string
	Picture  string `validate:"omitempty,url"`
}

// Validate validates the SocialIdentity using the validator.
func (i *SocialIdentity) Validate() error {
	validate := validator.New()
	return validate.Struct(i)
}
