package domain

import (
	"strings"
	"time"
)

// User is a pharmacy storefront account. Verification state lives directly on
// the record: an unverified user always carries the last issued code and its
// expiry; once verified the fields stay in place but are no longer consulted.
type User struct {
	UserID              string     `json:"id" dynamodbav:"user_id"`
	Username            string     `json:"username" dynamodbav:"username"`
	Email               string     `json:"email" dynamodbav:"email"`
	Phone               *string    `json:"phone" dynamodbav:"phone,omitempty"`
	PasswordHash        string     `json:"-" dynamodbav:"password_hash"`
	FirstName           string     `json:"first_name" dynamodbav:"first_name"`
	LastName            string     `json:"last_name" dynamodbav:"last_name"`
	Verified            bool       `json:"verified" dynamodbav:"verified"`
	VerifyCode          string     `json:"-" dynamodbav:"verify_code"`
	VerifyCodeExpiresAt int64      `json:"-" dynamodbav:"verify_code_expires_at"` // Unix seconds
	PhoneConfirmed      bool       `json:"phone_confirmed" dynamodbav:"phone_confirmed"`
	Enable              bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt           time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt           time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// DisplayName is what outbound emails address the user by.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// DeriveUsername builds the account username from the name parts.
func DeriveUsername(firstName, lastName string) string {
	return strings.ToLower(strings.TrimSpace(firstName) + strings.TrimSpace(lastName))
}

type SignupRequest struct {
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Phone     *string `json:"phone"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}
