package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/services"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type AuthOptions struct {
	BcryptCost    int
	ResetTokenTTL time.Duration
}

type AuthController struct {
	DB     *gorm.DB
	Mailer services.Mailer
	Opts   AuthOptions
}

func NewAuthController(db *gorm.DB, mailer services.Mailer, opts AuthOptions) *AuthController {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = 12
	}
	if opts.ResetTokenTTL == 0 {
		opts.ResetTokenTTL = time.Hour
	}
	return &AuthController{DB: db, Mailer: mailer, Opts: opts}
}

func (ac *AuthController) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), ac.Opts.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// findByEmail returns (nil, nil) when no account uses the address.
func (ac *AuthController) findByEmail(email string) (*models.User, error) {
	var user models.User
	err := ac.DB.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// respondWithToken issues a session token for user and writes the auth body.
func respondWithToken(c *gin.Context, message string, user *models.User) {
	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		utils.ErrorLogger.Printf("Error signing token for user %d: %v", user.ID, err)
		utils.RespondFail(c, "Error creating session. Please try again.")
		return
	}
	utils.RespondWith(c, message, gin.H{
		"token": token,
		"user":  user.Summary(),
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "All fields are required")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := models.NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		utils.RespondFail(c, "All fields are required")
		return
	}

	existing, err := ac.findByEmail(email)
	if err != nil {
		utils.ErrorLogger.Printf("Error looking up %s: %v", email, err)
		utils.RespondFail(c, "Registration failed. Please try again.")
		return
	}
	if existing != nil {
		utils.RespondFail(c, "User already exists with this email")
		return
	}

	if !isValidEmail(email) {
		utils.RespondFail(c, "Please enter a valid email address")
		return
	}

	if len(req.Password) < minPasswordLength {
		utils.RespondFail(c, "Password must be at least 8 characters long")
		return
	}

	hashed, err := ac.hashPassword(req.Password)
	if err != nil {
		utils.ErrorLogger.Printf("Error hashing password: %v", err)
		utils.RespondFail(c, "Registration failed. Please try again.")
		return
	}

	verificationToken, err := utils.RandomToken()
	if err != nil {
		utils.ErrorLogger.Printf("Error generating verification token: %v", err)
		utils.RespondFail(c, "Registration failed. Please try again.")
		return
	}

	user := models.User{
		Name:              name,
		Email:             email,
		Password:          &hashed,
		VerificationToken: &verificationToken,
		Preferences:       models.DefaultPreferences(),
		IsActive:          true,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		utils.ErrorLogger.Printf("Error creating user %s: %v", email, err)
		utils.RespondFail(c, "Registration failed. Please try again.")
		return
	}

	if err := ac.Mailer.SendVerification(user.Email, user.Name, verificationToken); err != nil {
		utils.ErrorLogger.Warnf("Verification email to %s not sent: %v", user.Email, err)
	}

	utils.InfoLogger.Printf("New user registered: %s", user.Email)
	respondWithToken(c, "Registration successful! Please check your email to verify your account.", &user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Email and password are required")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.RespondFail(c, "Email and password are required")
		return
	}

	user, err := ac.findByEmail(req.Email)
	if err != nil {
		utils.ErrorLogger.Printf("Error looking up %s: %v", req.Email, err)
		utils.RespondFail(c, "Login failed. Please try again.")
		return
	}
	if user == nil {
		utils.RespondFail(c, "No account found with this email address")
		return
	}

	if !user.IsActive {
		utils.RespondFail(c, "Your account has been deactivated. Please contact support.")
		return
	}

	if user.SocialOnly() {
		utils.RespondFail(c, "This account uses social login. Please sign in with Google or Facebook.")
		return
	}

	if !user.HasPassword() || bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(req.Password)) != nil {
		utils.RespondFail(c, "Invalid password")
		return
	}

	now := time.Now()
	user.LastLogin = &now
	if err := ac.DB.Model(user).Update("last_login", now).Error; err != nil {
		utils.ErrorLogger.Printf("Error updating last login for %d: %v", user.ID, err)
	}

	respondWithToken(c, "Login successful", user)
}

func (ac *AuthController) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Verification token is required")
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		utils.RespondFail(c, "Verification token is required")
		return
	}

	var user models.User
	if err := ac.DB.Where("verification_token = ?", token).First(&user).Error; err != nil {
		utils.RespondFail(c, "Invalid or expired verification token")
		return
	}

	if user.IsVerified {
		utils.RespondFail(c, "Email is already verified")
		return
	}

	if err := ac.DB.Model(&user).Updates(map[string]interface{}{
		"is_verified":        true,
		"verification_token": nil,
	}).Error; err != nil {
		utils.ErrorLogger.Printf("Error verifying user %d: %v", user.ID, err)
		utils.RespondFail(c, "Email verification failed. Please try again.")
		return
	}

	if err := ac.Mailer.SendWelcome(user.Email, user.Name); err != nil {
		utils.ErrorLogger.Warnf("Welcome email to %s not sent: %v", user.Email, err)
	}

	utils.RespondJSON(c, "Email verified successfully! Welcome to Ari's Restaurant!", nil)
}

func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Email is required")
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		utils.RespondFail(c, "Email is required")
		return
	}

	user, err := ac.findByEmail(req.Email)
	if err != nil {
		utils.ErrorLogger.Printf("Error looking up %s: %v", req.Email, err)
		utils.RespondFail(c, "Failed to process request. Please try again.")
		return
	}
	if user == nil {
		utils.RespondFail(c, "No account found with this email address")
		return
	}

	if user.SocialOnly() {
		utils.RespondFail(c, "This account uses social login. Password reset is not available.")
		return
	}

	resetToken, err := utils.RandomToken()
	if err != nil {
		utils.ErrorLogger.Printf("Error generating reset token: %v", err)
		utils.RespondFail(c, "Failed to process request. Please try again.")
		return
	}
	expires := time.Now().Add(ac.Opts.ResetTokenTTL)

	if err := ac.DB.Model(user).Updates(map[string]interface{}{
		"reset_password_token":   resetToken,
		"reset_password_expires": expires,
	}).Error; err != nil {
		utils.ErrorLogger.Printf("Error storing reset token for %d: %v", user.ID, err)
		utils.RespondFail(c, "Failed to process request. Please try again.")
		return
	}

	if err := ac.Mailer.SendPasswordReset(user.Email, user.Name, resetToken); err != nil {
		utils.ErrorLogger.Printf("Reset email to %s not sent: %v", user.Email, err)
		utils.RespondFail(c, "Failed to send reset email. Please try again.")
		return
	}

	utils.RespondJSON(c, "Password reset link sent to your email", nil)
}

func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "Token and new password are required")
		return
	}

	if strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
		utils.RespondFail(c, "Token and new password are required")
		return
	}

	if len(req.NewPassword) < minPasswordLength {
		utils.RespondFail(c, "Password must be at least 8 characters long")
		return
	}

	var user models.User
	err := ac.DB.Where("reset_password_token = ? AND reset_password_expires > ?", strings.TrimSpace(req.Token), time.Now()).
		First(&user).Error
	if err != nil {
		utils.RespondFail(c, "Invalid or expired reset token")
		return
	}

	hashed, err := ac.hashPassword(req.NewPassword)
	if err != nil {
		utils.ErrorLogger.Printf("Error hashing password: %v", err)
		utils.RespondFail(c, "Password reset failed. Please try again.")
		return
	}

	if err := ac.DB.Model(&user).Updates(map[string]interface{}{
		"password":               hashed,
		"reset_password_token":   nil,
		"reset_password_expires": nil,
	}).Error; err != nil {
		utils.ErrorLogger.Printf("Error resetting password for %d: %v", user.ID, err)
		utils.RespondFail(c, "Password reset failed. Please try again.")
		return
	}

	utils.RespondJSON(c, "Password reset successful! You can now login with your new password.", nil)
}
