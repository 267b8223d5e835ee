package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/storage"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RestaurantController struct {
	DB     *gorm.DB
	Images storage.ImageStore
}

func NewRestaurantController(db *gorm.DB, images storage.ImageStore) *RestaurantController {
	return &RestaurantController{DB: db, Images: images}
}

func parseRating(raw string) (float64, error) {
	rating, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || rating < 0 || rating > 5 {
		return 0, errors.New("Rating must be between 0 and 5")
	}
	return rating, nil
}

func (rc *RestaurantController) AddRestaurant(c *gin.Context) {
	form := map[string]string{}
	for _, field := range []string{"name", "rating", "deliveryTime", "cuisine", "address", "phone", "email"} {
		form[field] = strings.TrimSpace(c.PostForm(field))
		if form[field] == "" {
			utils.RespondFail(c, "Please provide all required fields: name, rating, deliveryTime, cuisine, address, phone, email")
			return
		}
	}

	rating, err := parseRating(form["rating"])
	if err != nil {
		utils.RespondFail(c, err.Error())
		return
	}

	isActive := true
	if v := strings.TrimSpace(c.PostForm("isActive")); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			utils.RespondFail(c, "isActive must be true or false")
			return
		}
		isActive = parsed
	}

	image := models.DefaultRestaurantImage
	if fh := formImage(c, "image"); fh != nil {
		saved, ok := saveImage(c, rc.Images, fh)
		if !ok {
			return
		}
		image = saved
	}

	restaurant := models.Restaurant{
		Name:         form["name"],
		Image:        image,
		Rating:       rating,
		DeliveryTime: form["deliveryTime"],
		Cuisine:      form["cuisine"],
		Badge:        strings.TrimSpace(c.PostForm("badge")),
		Discount:     strings.TrimSpace(c.PostForm("discount")),
		Address:      form["address"],
		Phone:        form["phone"],
		Email:        models.NormalizeEmail(form["email"]),
		IsActive:     isActive,
	}

	if err := rc.DB.Create(&restaurant).Error; err != nil {
		removeImage(rc.Images, image, models.DefaultRestaurantImage)
		utils.ErrorLogger.Printf("Error adding restaurant: %v", err)
		utils.RespondFail(c, "Error adding restaurant")
		return
	}

	utils.InfoLogger.Printf("Restaurant added: %s (id=%d)", restaurant.Name, restaurant.ID)
	utils.RespondJSON(c, "Restaurant added successfully", restaurant)
}

// ListRestaurants returns all restaurants, newest first.
func (rc *RestaurantController) ListRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	if err := rc.DB.Order("id DESC").Find(&restaurants).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching restaurants: %v", err)
		utils.RespondFail(c, "Error fetching restaurants")
		return
	}
	utils.RespondJSON(c, "", restaurants)
}

func (rc *RestaurantController) GetRestaurant(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		utils.RespondFail(c, "Restaurant not found")
		return
	}

	var restaurant models.Restaurant
	if err := rc.DB.First(&restaurant, id).Error; err != nil {
		utils.RespondFail(c, "Restaurant not found")
		return
	}
	utils.RespondJSON(c, "", restaurant)
}

func (rc *RestaurantController) UpdateRestaurant(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		utils.RespondFail(c, "Restaurant not found")
		return
	}

	var restaurant models.Restaurant
	if err := rc.DB.First(&restaurant, id).Error; err != nil {
		utils.RespondFail(c, "Restaurant not found")
		return
	}

	text := map[string]*string{
		"name":         &restaurant.Name,
		"deliveryTime": &restaurant.DeliveryTime,
		"cuisine":      &restaurant.Cuisine,
		"badge":        &restaurant.Badge,
		"discount":     &restaurant.Discount,
		"address":      &restaurant.Address,
		"phone":        &restaurant.Phone,
	}
	for field, dst := range text {
		if v, sent := c.GetPostForm(field); sent {
			v = strings.TrimSpace(v)
			// badge and discount may be cleared, the rest may not
			if v == "" && field != "badge" && field != "discount" {
				continue
			}
			*dst = v
		}
	}
	if v := strings.TrimSpace(c.PostForm("email")); v != "" {
		restaurant.Email = models.NormalizeEmail(v)
	}
	if v := strings.TrimSpace(c.PostForm("rating")); v != "" {
		rating, err := parseRating(v)
		if err != nil {
			utils.RespondFail(c, err.Error())
			return
		}
		restaurant.Rating = rating
	}
	if v := strings.TrimSpace(c.PostForm("isActive")); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			utils.RespondFail(c, "isActive must be true or false")
			return
		}
		restaurant.IsActive = active
	}

	oldImage := restaurant.Image
	if fh := formImage(c, "image"); fh != nil {
		saved, ok := saveImage(c, rc.Images, fh)
		if !ok {
			return
		}
		restaurant.Image = saved
	}

	if err := rc.DB.Save(&restaurant).Error; err != nil {
		if restaurant.Image != oldImage {
			removeImage(rc.Images, restaurant.Image, models.DefaultRestaurantImage)
		}
		utils.ErrorLogger.Printf("Error updating restaurant %d: %v", id, err)
		utils.RespondFail(c, "Error updating restaurant")
		return
	}

	if restaurant.Image != oldImage {
		removeImage(rc.Images, oldImage, models.DefaultRestaurantImage)
	}

	utils.RespondJSON(c, "Restaurant updated successfully", restaurant)
}

func (rc *RestaurantController) RemoveRestaurant(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var restaurant models.Restaurant
	if err := rc.DB.First(&restaurant, id).Error; err != nil {
		utils.RespondFail(c, "Restaurant not found")
		return
	}

	if err := rc.DB.Delete(&restaurant).Error; err != nil {
		utils.ErrorLogger.Printf("Error removing restaurant %d: %v", id, err)
		utils.RespondFail(c, "Error removing restaurant")
		return
	}

	removeImage(rc.Images, restaurant.Image, models.DefaultRestaurantImage)
	utils.RespondJSON(c, "Restaurant removed successfully", nil)
}
