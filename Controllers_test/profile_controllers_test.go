package Controllers_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/arisrestaurant/food-delivery/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAndUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "profile@example.com", "password123")

	body := requireOK(t, env.doJSON(http.MethodGet, "/api/auth/profile", nil, token))
	profile := body["user"].(map[string]interface{})
	assert.Equal(t, "profile@example.com", profile["email"])
	assert.Equal(t, true, profile["hasPassword"])

	requireOK(t, env.doJSON(http.MethodPut, "/api/auth/profile", map[string]interface{}{
		"name":  "Renamed",
		"phone": "9800000000",
		"address": map[string]string{
			"street": "1 Park Street",
			"city":   "Kolkata",
		},
		"preferences": map[string]interface{}{
			"notifications": map[string]bool{"email": false, "sms": true},
			"dietary":       map[string]bool{"vegetarian": true},
		},
	}, token))

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	assert.Equal(t, "Renamed", stored.Name)
	require.NotNil(t, stored.Phone)
	assert.Equal(t, "9800000000", *stored.Phone)
	assert.Equal(t, "Kolkata", stored.Address.City)
	assert.True(t, stored.Preferences.Notifications.SMS)
	assert.False(t, stored.Preferences.Notifications.Email)
	assert.True(t, stored.Preferences.Dietary.Vegetarian)
}

func TestUploadProfileImageReplacesOldFile(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "avatar@example.com", "password123")
	require.NoError(t, env.DB.Model(user).Update("profile_image", "/profiles/profile-old.png").Error)

	w := env.doMultipart(t, http.MethodPost, "/api/auth/profile/image", nil, "profileImage", "me.png", token)
	body := requireOK(t, w)
	assert.Equal(t, "/profiles/stored-me.png", body["profileImage"])
	assert.Equal(t, []string{"profile-old.png"}, env.Profiles.removed)

	requireFail(t, env.doMultipart(t, http.MethodPost, "/api/auth/profile/image", nil, "", "", token), "No image file provided")
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "change@example.com", "password123")

	requireFail(t, env.doJSON(http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": "wrong-one", "newPassword": "new-password",
	}, token), "Current password is incorrect")

	requireFail(t, env.doJSON(http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": "password123", "newPassword": "short",
	}, token), "New password must be at least 8 characters long")

	requireOK(t, env.doJSON(http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": "password123", "newPassword": "new-password",
	}, token))

	requireOK(t, env.doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "change@example.com", "password": "new-password",
	}, ""))
}

func TestChangePasswordRejectsSocialOnly(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "fb@example.com", "")
	require.NoError(t, env.DB.Model(user).Update("facebook_id", "fb-1").Error)

	requireFail(t, env.doJSON(http.MethodPut, "/api/auth/change-password", map[string]string{
		"currentPassword": "x", "newPassword": "new-password",
	}, token), "Cannot change password for social login accounts")
}

func TestDeleteAccountDeactivatesAndFreesEmail(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "leaving@example.com", "password123")
	require.NoError(t, env.DB.Model(user).Update("profile_image", "/profiles/profile-me.png").Error)

	requireFail(t, env.doJSON(http.MethodDelete, "/api/auth/account", map[string]string{}, token),
		"Password is required to delete account")
	requireFail(t, env.doJSON(http.MethodDelete, "/api/auth/account", map[string]string{"password": "nope"}, token),
		"Incorrect password")

	requireOK(t, env.doJSON(http.MethodDelete, "/api/auth/account", map[string]string{"password": "password123"}, token))

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	assert.False(t, stored.IsActive)
	assert.True(t, strings.HasPrefix(stored.Email, "deleted_"))
	assert.True(t, strings.HasSuffix(stored.Email, "_leaving@example.com"))
	assert.Equal(t, []string{"profile-me.png"}, env.Profiles.removed)

	// the old token no longer works
	w := env.doJSON(http.MethodGet, "/api/auth/profile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Account is deactivated.", decodeBody(t, w)["message"])

	// and the address can be registered again
	requireOK(t, env.doJSON(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Back Again", "email": "leaving@example.com", "password": "password123",
	}, ""))
}

func TestSaveCartSnapshot(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "cart@example.com", "password123")

	body := requireOK(t, env.doJSON(http.MethodPut, "/api/auth/cart", map[string]interface{}{
		"cartData": map[string]int{"4": 2, "bundled-1": 1, "9": 0},
	}, token))
	assert.Equal(t, map[string]interface{}{"4": 2.0, "bundled-1": 1.0}, body["data"])

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	assert.Equal(t, map[string]int{"4": 2, "bundled-1": 1}, stored.CartData)
}

func TestDeleteAccountWithLinkedSocialSkipsPassword(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "both@example.com", "password123")
	require.NoError(t, env.DB.Model(user).Update("google_id", "g-1").Error)

	requireOK(t, env.doJSON(http.MethodDelete, "/api/auth/account", map[string]string{}, token))

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	assert.False(t, stored.IsActive)
	assert.True(t, strings.HasPrefix(stored.Email, "deleted_"))
}

func TestDeleteSocialOnlyAccountWithoutBody(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "fb-only@example.com", "")
	require.NoError(t, env.DB.Model(user).Updates(map[string]interface{}{
		"facebook_id":   "fb-2",
		"profile_image": "https://graph.facebook.com/fb-2/picture",
	}).Error)

	requireOK(t, env.doJSON(http.MethodDelete, "/api/auth/account", nil, token))

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	assert.False(t, stored.IsActive)
	assert.Nil(t, stored.ProfileImage)
	// remote provider pictures are not ours to delete
	assert.Empty(t, env.Profiles.removed)
}

func TestDeleteAccountRejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "typo@example.com", "password123")

	req := newRequest(http.MethodDelete, "/api/auth/account")
	req.Body = io.NopCloser(strings.NewReader(`{"password":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	requireFail(t, serve(env, req), "Invalid request data")

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	assert.True(t, stored.IsActive)
}
