package controllers

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/arisrestaurant/food-delivery/middlewares"
	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/storage"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ProfileURLPrefix is where the router serves the profile image store.
const ProfileURLPrefix = "/profiles/"

type ProfileController struct {
	DB         *gorm.DB
	Images     storage.ImageStore
	BcryptCost int
}

func NewProfileController(db *gorm.DB, images storage.ImageStore, bcryptCost int) *ProfileController {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	return &ProfileController{DB: db, Images: images, BcryptCost: bcryptCost}
}

// removeLocalProfileImage deletes an uploaded avatar. Remote provider
// pictures are left alone.
func (pc *ProfileController) removeLocalProfileImage(image *string) {
	if image == nil || !strings.HasPrefix(*image, ProfileURLPrefix) {
		return
	}
	removeImage(pc.Images, path.Base(*image), "")
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	summary := user.Summary()
	summary["preferences"] = user.Preferences
	summary["hasPassword"] = user.HasPassword()
	summary["googleLinked"] = user.GoogleID != nil
	summary["facebookLinked"] = user.FacebookID != nil
	summary["lastLogin"] = user.LastLogin
	summary["createdAt"] = user.CreatedAt

	utils.RespondWith(c, "", gin.H{"user": summary})
}

type updateProfileRequest struct {
	Name        *string             `json:"name"`
	Phone       *string             `json:"phone"`
	Address     *models.Address     `json:"address"`
	Preferences *models.Preferences `json:"preferences"`
}

func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Invalid profile data")
		return
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			user.Name = name
		}
	}
	if req.Phone != nil {
		user.Phone = models.StrPtr(strings.TrimSpace(*req.Phone))
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Preferences != nil {
		user.Preferences = *req.Preferences
	}

	if err := pc.DB.Save(user).Error; err != nil {
		utils.ErrorLogger.Printf("Error updating profile %d: %v", user.ID, err)
		utils.RespondFail(c, "Failed to update profile")
		return
	}

	utils.RespondWith(c, "Profile updated successfully", gin.H{"user": user.Summary()})
}

// UploadProfileImage stores the "profileImage" upload and replaces the old one.
func (pc *ProfileController) UploadProfileImage(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	fh := formImage(c, "profileImage")
	if fh == nil {
		utils.RespondFail(c, "No image file provided")
		return
	}

	name, ok := saveImage(c, pc.Images, fh)
	if !ok {
		return
	}

	old := user.ProfileImage
	url := ProfileURLPrefix + name
	if err := pc.DB.Model(user).Update("profile_image", url).Error; err != nil {
		removeImage(pc.Images, name, "")
		utils.ErrorLogger.Printf("Error saving profile image for %d: %v", user.ID, err)
		utils.RespondFail(c, "Failed to upload profile image")
		return
	}
	user.ProfileImage = &url
	pc.removeLocalProfileImage(old)

	utils.RespondWith(c, "Profile image updated successfully", gin.H{
		"profileImage": url,
		"user":         user.Summary(),
	})
}

func (pc *ProfileController) ChangePassword(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !user.HasPassword() {
		utils.RespondFail(c, "Cannot change password for social login accounts")
		return
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Current password and new password are required")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		utils.RespondFail(c, "Current password and new password are required")
		return
	}

	if len(req.NewPassword) < minPasswordLength {
		utils.RespondFail(c, "New password must be at least 8 characters long")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(req.CurrentPassword)) != nil {
		utils.RespondFail(c, "Current password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), pc.BcryptCost)
	if err != nil {
		utils.ErrorLogger.Printf("Error hashing password: %v", err)
		utils.RespondFail(c, "Failed to change password")
		return
	}

	if err := pc.DB.Model(user).Update("password", string(hashed)).Error; err != nil {
		utils.ErrorLogger.Printf("Error changing password for %d: %v", user.ID, err)
		utils.RespondFail(c, "Failed to change password")
		return
	}

	utils.RespondJSON(c, "Password changed successfully", nil)
}

// DeleteAccount deactivates the account and frees its email address. The
// record itself is kept. Accounts with a linked social login skip the
// password check.
func (pc *ProfileController) DeleteAccount(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	var req struct {
		Password string `json:"password"`
	}
	// social accounts may send no body at all
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondFail(c, "Invalid request data")
		return
	}

	if user.HasPassword() && !user.HasSocialLogin() {
		if req.Password == "" {
			utils.RespondFail(c, "Password is required to delete account")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(req.Password)) != nil {
			utils.RespondFail(c, "Incorrect password")
			return
		}
	}

	oldImage := user.ProfileImage
	mangled := fmt.Sprintf("deleted_%d_%s", time.Now().UnixMilli(), user.Email)
	if err := pc.DB.Model(user).Updates(map[string]interface{}{
		"is_active":     false,
		"email":         mangled,
		"profile_image": nil,
	}).Error; err != nil {
		utils.ErrorLogger.Printf("Error deleting account %d: %v", user.ID, err)
		utils.RespondFail(c, "Failed to delete account")
		return
	}
	pc.removeLocalProfileImage(oldImage)

	utils.InfoLogger.Printf("Account %d deactivated", user.ID)
	utils.RespondJSON(c, "Account deleted successfully", nil)
}

// SaveCartSnapshot stores the client's cart on the account. Non-positive
// quantities are dropped.
func (pc *ProfileController) SaveCartSnapshot(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	var req struct {
		CartData map[string]int `json:"cartData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Invalid cart data")
		return
	}

	snapshot := make(map[string]int, len(req.CartData))
	for id, qty := range req.CartData {
		if qty > 0 {
			snapshot[id] = qty
		}
	}

	user.CartData = snapshot
	if err := pc.DB.Model(user).Select("cart_data").Updates(user).Error; err != nil {
		utils.ErrorLogger.Printf("Error saving cart for %d: %v", user.ID, err)
		utils.RespondFail(c, "Failed to save cart")
		return
	}

	utils.RespondJSON(c, "Cart saved", snapshot)
}
