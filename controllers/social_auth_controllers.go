package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/arisrestaurant/food-delivery/middlewares"
	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	providerGoogle   = "google"
	providerFacebook = "facebook"
)

var providerTitle = map[string]string{
	providerGoogle:   "Google",
	providerFacebook: "Facebook",
}

// providerColumn maps a provider name to its user column.
func providerColumn(provider string) (string, bool) {
	switch provider {
	case providerGoogle:
		return "google_id", true
	case providerFacebook:
		return "facebook_id", true
	}
	return "", false
}

func setProviderID(user *models.User, provider, id string) {
	if provider == providerGoogle {
		user.GoogleID = models.StrPtr(id)
	} else {
		user.FacebookID = models.StrPtr(id)
	}
}

type socialProfile struct {
	Provider string
	ID       string
	Email    string
	Name     string
	Picture  string
}

// resolveSocialUser finds the account by provider id, then by email (linking
// the provider), and creates a verified account when neither matches.
func (ac *AuthController) resolveSocialUser(p socialProfile) (*models.User, error) {
	column, _ := providerColumn(p.Provider)

	var user models.User
	err := ac.DB.Where(column+" = ?", p.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if p.Email != "" {
		existing, err := ac.findByEmail(p.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			setProviderID(existing, p.Provider, p.ID)
			existing.IsVerified = true
			existing.VerificationToken = nil
			if existing.ProfileImage == nil && p.Picture != "" {
				existing.ProfileImage = models.StrPtr(p.Picture)
			}
			if err := ac.DB.Save(existing).Error; err != nil {
				return nil, err
			}
			return existing, nil
		}
	}

	if err := ac.createSocialUser(&user, p); err != nil {
		return nil, err
	}
	return &user, nil
}

func (ac *AuthController) socialLogin(c *gin.Context, p socialProfile) {
	user, err := ac.resolveSocialUser(p)
	if err != nil {
		utils.ErrorLogger.Printf("%s authentication failed: %v", p.Provider, err)
		utils.RespondFail(c, "Social authentication failed. Please try again.")
		return
	}

	if !user.IsActive {
		utils.RespondFail(c, "Your account has been deactivated. Please contact support.")
		return
	}

	now := time.Now()
	user.LastLogin = &now
	if err := ac.DB.Model(user).Update("last_login", now).Error; err != nil {
		utils.ErrorLogger.Printf("Error updating last login for %d: %v", user.ID, err)
	}

	respondWithToken(c, "Login successful", user)
}

func (ac *AuthController) createSocialUser(user *models.User, p socialProfile) error {
	email := models.NormalizeEmail(p.Email)
	if email == "" {
		email = models.PlaceholderEmail(p.ID)
	}

	*user = models.User{
		Name:         strings.TrimSpace(p.Name),
		Email:        email,
		ProfileImage: models.StrPtr(p.Picture),
		Preferences:  models.DefaultPreferences(),
		IsVerified:   true,
		IsActive:     true,
	}
	setProviderID(user, p.Provider, p.ID)

	if err := ac.DB.Create(user).Error; err != nil {
		return err
	}

	if !models.IsPlaceholderEmail(user.Email) {
		if err := ac.Mailer.SendWelcome(user.Email, user.Name); err != nil {
			utils.ErrorLogger.Warnf("Welcome email to %s not sent: %v", user.Email, err)
		}
	}
	utils.InfoLogger.Printf("New %s user: %s", p.Provider, user.Email)
	return nil
}

func (ac *AuthController) GoogleAuth(c *gin.Context) {
	var req struct {
		GoogleID string `json:"googleId"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Picture  string `json:"picture"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Google ID, email, and name are required")
		return
	}

	if req.GoogleID == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Name) == "" {
		utils.RespondFail(c, "Google ID, email, and name are required")
		return
	}

	ac.socialLogin(c, socialProfile{
		Provider: providerGoogle,
		ID:       req.GoogleID,
		Email:    req.Email,
		Name:     req.Name,
		Picture:  req.Picture,
	})
}

func (ac *AuthController) FacebookAuth(c *gin.Context) {
	var req struct {
		FacebookID string `json:"facebookId"`
		Email      string `json:"email"`
		Name       string `json:"name"`
		Picture    string `json:"picture"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Facebook ID and name are required")
		return
	}

	if req.FacebookID == "" || strings.TrimSpace(req.Name) == "" {
		utils.RespondFail(c, "Facebook ID and name are required")
		return
	}

	ac.socialLogin(c, socialProfile{
		Provider: providerFacebook,
		ID:       req.FacebookID,
		Email:    req.Email,
		Name:     req.Name,
		Picture:  req.Picture,
	})
}

type linkSocialRequest struct {
	Provider string `json:"provider"`
	SocialID string `json:"socialId"`
	Picture  string `json:"picture"`
}

func (ac *AuthController) LinkSocial(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	var req linkSocialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Valid provider (google or facebook) and social ID are required")
		return
	}

	column, ok := providerColumn(req.Provider)
	if !ok || req.SocialID == "" {
		utils.RespondFail(c, "Valid provider (google or facebook) and social ID are required")
		return
	}

	var other models.User
	err := ac.DB.Where(column+" = ? AND id <> ?", req.SocialID, user.ID).First(&other).Error
	if err == nil {
		utils.RespondFail(c, "This social account is already linked to another user")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.ErrorLogger.Printf("Error checking %s link: %v", req.Provider, err)
		utils.RespondFail(c, "Failed to link social account")
		return
	}

	setProviderID(user, req.Provider, req.SocialID)
	if user.ProfileImage == nil && req.Picture != "" {
		user.ProfileImage = models.StrPtr(req.Picture)
	}
	if err := ac.DB.Save(user).Error; err != nil {
		utils.ErrorLogger.Printf("Error linking %s for %d: %v", req.Provider, user.ID, err)
		utils.RespondFail(c, "Failed to link social account")
		return
	}

	utils.RespondWith(c, providerTitle[req.Provider]+" account linked successfully", gin.H{"user": user.Summary()})
}

func (ac *AuthController) UnlinkSocial(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	var req struct {
		Provider string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Valid provider (google or facebook) is required")
		return
	}

	column, ok := providerColumn(req.Provider)
	if !ok {
		utils.RespondFail(c, "Valid provider (google or facebook) is required")
		return
	}

	remaining := 0
	if user.HasPassword() {
		remaining++
	}
	if req.Provider != providerGoogle && user.GoogleID != nil && *user.GoogleID != "" {
		remaining++
	}
	if req.Provider != providerFacebook && user.FacebookID != nil && *user.FacebookID != "" {
		remaining++
	}
	if remaining == 0 {
		utils.RespondFail(c, "Cannot unlink the only login method. Please set a password first.")
		return
	}

	if err := ac.DB.Model(user).Update(column, nil).Error; err != nil {
		utils.ErrorLogger.Printf("Error unlinking %s for %d: %v", req.Provider, user.ID, err)
		utils.RespondFail(c, "Failed to unlink social account")
		return
	}
	setProviderID(user, req.Provider, "")

	utils.RespondWith(c, providerTitle[req.Provider]+" account unlinked successfully", gin.H{"user": user.Summary()})
}
