package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`                      // bcrypt hash
	FirebaseUID *string   `json:"firebase_uid,omitempty"` // set once the account is linked to Firebase
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// UserCompact is the author shape embedded in feed items.
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ToCompact returns the public view of u. The email is only kept when the
// viewer is the user themself.
func (u *User) ToCompact(viewerID uint) UserCompact {
	c := UserCompact{ID: u.ID, Username: u.Username}
	if viewerID != 0 && viewerID == u.ID {
		c.Email = u.Email
	}
	return c
}

// ForViewer returns a copy of u with the email blanked for anyone but the user.
func (u User) ForViewer(viewerID uint) User {
	if viewerID == 0 || viewerID != u.ID {
		u.Email = ""
	}
	return u
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,excludes=@"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=3"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	UserID      uint   `json:"userId" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// UserMutationResponse is returned by every account mutation.
type UserMutationResponse struct {
	Code      int          `json:"code"`
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	ErrorCode string       `json:"errorCode,omitempty"`
	Token     string       `json:"token,omitempty"`
	User      *User        `json:"user,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
