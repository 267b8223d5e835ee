package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/arisrestaurant/food-delivery/storage"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func isValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// entityID accepts both 12 and "12" in JSON bodies.
type entityID uint

func (id *entityID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return fmt.Errorf("invalid id %q", s)
	}
	*id = entityID(n)
	return nil
}

type idRequest struct {
	ID entityID `json:"id" binding:"required"`
}

// bindID reads {"id": ...} from the body.
func bindID(c *gin.Context) (uint, bool) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondFail(c, "A valid id is required")
		return 0, false
	}
	return uint(req.ID), true
}

func paramID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// formImage returns the uploaded file under field, or nil when none was sent.
func formImage(c *gin.Context, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

// saveImage stores an upload and writes the failure response itself.
func saveImage(c *gin.Context, store storage.ImageStore, fh *multipart.FileHeader) (string, bool) {
	name, err := store.Save(fh)
	if err == nil {
		return name, true
	}

	switch {
	case errors.Is(err, storage.ErrNotImage):
		utils.RespondFail(c, "Only image files (JPG, PNG, GIF, WebP) are allowed.")
	case errors.Is(err, storage.ErrTooLarge):
		utils.RespondFail(c, "File size too large. "+strings.TrimPrefix(err.Error(), storage.ErrTooLarge.Error()+": "))
	default:
		utils.ErrorLogger.Printf("Error saving upload %q: %v", fh.Filename, err)
		utils.RespondError(c, http.StatusInternalServerError, "Error saving image")
	}
	return "", false
}

// removeImage deletes a stored image unless it is the placeholder.
func removeImage(store storage.ImageStore, name, placeholder string) {
	if name == "" || name == placeholder {
		return
	}
	if err := store.Remove(name); err != nil && !errors.Is(err, storage.ErrBadName) {
		utils.ErrorLogger.Printf("Error deleting image %s: %v", name, err)
	}
}

func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price < 0 {
		return 0, errors.New("Price must be a non-negative number")
	}
	return price, nil
}
