package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/arisrestaurant/food-delivery/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleAuthCreatesVerifiedAccount(t *testing.T) {
	env := newTestEnv(t)

	body := requireOK(t, env.doJSON(http.MethodPost, "/api/auth/google", map[string]string{
		"googleId": "g-42",
		"email":    "Meera@Example.com",
		"name":     "Meera",
		"picture":  "https://example.com/meera.png",
	}, ""))
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "meera@example.com", user["email"])
	assert.Equal(t, true, user["isVerified"])

	var stored models.User
	require.NoError(t, env.DB.Where("google_id = ?", "g-42").First(&stored).Error)
	assert.Nil(t, stored.Password)

	_, ok := env.Mailer.last("welcome")
	assert.True(t, ok)

	// signing in again finds the same account
	requireOK(t, env.doJSON(http.MethodPost, "/api/auth/google", map[string]string{
		"googleId": "g-42", "email": "meera@example.com", "name": "Meera",
	}, ""))
	var count int64
	env.DB.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGoogleAuthLinksExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	existing, _ := env.createUser(t, "linked@example.com", "password123")

	requireOK(t, env.doJSON(http.MethodPost, "/api/auth/google", map[string]string{
		"googleId": "g-7", "email": "linked@example.com", "name": "Linked",
	}, ""))

	var stored models.User
	require.NoError(t, env.DB.First(&stored, existing.ID).Error)
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "g-7", *stored.GoogleID)
	assert.True(t, stored.IsVerified)
	assert.True(t, stored.HasPassword())
}

func TestFacebookAuthWithoutEmailHidesPlaceholder(t *testing.T) {
	env := newTestEnv(t)

	requireFail(t, env.doJSON(http.MethodPost, "/api/auth/facebook", map[string]string{"name": "No Id"}, ""),
		"Facebook ID and name are required")

	body := requireOK(t, env.doJSON(http.MethodPost, "/api/auth/facebook", map[string]string{
		"facebookId": "fb-9", "name": "Kiran",
	}, ""))
	user := body["user"].(map[string]interface{})
	assert.Nil(t, user["email"])

	var stored models.User
	require.NoError(t, env.DB.Where("facebook_id = ?", "fb-9").First(&stored).Error)
	assert.Equal(t, "facebook_fb-9@placeholder.com", stored.Email)

	_, ok := env.Mailer.last("welcome")
	assert.False(t, ok)
}

func TestLinkAndUnlinkSocial(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "me@example.com", "password123")
	other, _ := env.createUser(t, "other@example.com", "password123")
	require.NoError(t, env.DB.Model(other).Update("facebook_id", "fb-taken").Error)

	requireFail(t, env.doJSON(http.MethodPost, "/api/auth/link-social", map[string]string{
		"provider": "facebook", "socialId": "fb-taken",
	}, token), "This social account is already linked to another user")

	requireFail(t, env.doJSON(http.MethodPost, "/api/auth/link-social", map[string]string{
		"provider": "myspace", "socialId": "x",
	}, token), "Valid provider (google or facebook) and social ID are required")

	body := requireOK(t, env.doJSON(http.MethodPost, "/api/auth/link-social", map[string]string{
		"provider": "google", "socialId": "g-mine",
	}, token))
	assert.Equal(t, "Google account linked successfully", body["message"])

	requireOK(t, env.doJSON(http.MethodPost, "/api/auth/unlink-social", map[string]string{"provider": "google"}, token))

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	assert.Nil(t, stored.GoogleID)
}

func TestUnlinkRefusesOnlyLoginMethod(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "social-only@example.com", "")
	require.NoError(t, env.DB.Model(user).Update("google_id", "g-only").Error)

	requireFail(t, env.doJSON(http.MethodPost, "/api/auth/unlink-social", map[string]string{"provider": "google"}, token),
		"Cannot unlink the only login method. Please set a password first.")
}

func TestGoogleLinkByEmailClearsVerificationToken(t *testing.T) {
	env := newTestEnv(t)
	existing, _ := env.createUser(t, "pending@example.com", "password123")
	require.NoError(t, env.DB.Model(existing).Update("verification_token", "still-pending").Error)

	requireOK(t, env.doJSON(http.MethodPost, "/api/auth/google", map[string]string{
		"googleId": "g-8", "email": "pending@example.com", "name": "Pending",
	}, ""))

	var stored models.User
	require.NoError(t, env.DB.First(&stored, existing.ID).Error)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerificationToken)
}
