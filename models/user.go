package models

import (
	"strings"
	"time"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type NotificationPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

type DietaryPreferences struct {
	Vegetarian bool `json:"vegetarian"`
	Vegan      bool `json:"vegan"`
	GlutenFree bool `json:"glutenFree"`
}

type Preferences struct {
	Notifications NotificationPreferences `json:"notifications"`
	Dietary       DietaryPreferences      `json:"dietary"`
}

func DefaultPreferences() Preferences {
	return Preferences{Notifications: NotificationPreferences{Email: true}}
}

type User struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Email string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	// Nil for accounts that only sign in through a social provider.
	Password *string `gorm:"type:varchar(255)" json:"-"`

	ProfileImage *string     `gorm:"type:varchar(512)" json:"profileImage"`
	Phone        *string     `gorm:"type:varchar(50)" json:"phone"`
	Address      Address     `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Preferences  Preferences `gorm:"type:text;serializer:json" json:"preferences"`

	GoogleID   *string `gorm:"type:varchar(255);uniqueIndex" json:"googleId,omitempty"`
	FacebookID *string `gorm:"type:varchar(255);uniqueIndex" json:"facebookId,omitempty"`

	IsVerified           bool       `gorm:"not null" json:"isVerified"`
	VerificationToken    *string    `gorm:"type:varchar(128);index" json:"-"`
	ResetPasswordToken   *string    `gorm:"type:varchar(128);index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`

	IsActive  bool       `gorm:"not null" json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
	// Denormalized cart snapshot written by clients; nothing reads it back.
	CartData map[string]int `gorm:"type:text;serializer:json" json:"cartData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

func (u *User) HasSocialLogin() bool {
	return (u.GoogleID != nil && *u.GoogleID != "") || (u.FacebookID != nil && *u.FacebookID != "")
}

// SocialOnly reports accounts that cannot sign in with a password.
func (u *User) SocialOnly() bool {
	return !u.HasPassword() && u.HasSocialLogin()
}

// Summary is the public shape returned by the auth endpoints.
func (u *User) Summary() map[string]interface{} {
	email := u.Email
	var emailOut interface{} = email
	if IsPlaceholderEmail(email) {
		emailOut = nil
	}
	return map[string]interface{}{
		"id":           u.ID,
		"name":         u.Name,
		"email":        emailOut,
		"isVerified":   u.IsVerified,
		"profileImage": u.ProfileImage,
		"phone":        u.Phone,
		"address":      u.Address,
	}
}

const placeholderEmailDomain = "@placeholder.com"

// PlaceholderEmail is used for Facebook accounts that did not share an email.
func PlaceholderEmail(facebookID string) string {
	return "facebook_" + facebookID + placeholderEmailDomain
}

func IsPlaceholderEmail(email string) bool {
	return strings.HasSuffix(email, placeholderEmailDomain)
}

// StrPtr returns nil for empty strings.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
