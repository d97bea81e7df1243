package domain

import "time"

// Account is the persisted identity record. Email is the primary lookup key
// and is stored lower-cased; it only changes through the email-change flow.
type Account struct {
	AccountID      string    `json:"id" dynamodbav:"account_id"`
	DisplayName    string    `json:"display_name" dynamodbav:"display_name"`
	Email          string    `json:"email" dynamodbav:"email"`
	CredentialHash string    `json:"-" dynamodbav:"credential_hash"`
	Verified       bool      `json:"verified" dynamodbav:"verified"`
	AvatarKey      string    `json:"-" dynamodbav:"avatar_key"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	DisplayName          string `json:"display_name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	// AvatarBase64 carries image bytes for the profile picture, base64-encoded.
	AvatarBase64 *string `json:"avatar_base64"`
	// RemoveAvatar deletes the stored picture. Ignored when AvatarBase64 is set.
	RemoveAvatar bool `json:"remove_avatar"`
}
