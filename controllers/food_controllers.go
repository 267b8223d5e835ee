package controllers

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/arisrestaurant/food-delivery/menufeed"
	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/storage"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FoodController struct {
	DB     *gorm.DB
	Images storage.ImageStore
	Feed   *menufeed.Hub
}

func NewFoodController(db *gorm.DB, images storage.ImageStore, feed *menufeed.Hub) *FoodController {
	return &FoodController{DB: db, Images: images, Feed: feed}
}

// ListFoods returns the whole catalog, oldest first.
func (fc *FoodController) ListFoods(c *gin.Context) {
	var foods []models.Food
	if err := fc.DB.Order("id ASC").Find(&foods).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching food items: %v", err)
		utils.RespondFail(c, "Error fetching food items")
		return
	}
	utils.RespondJSON(c, "", foods)
}

// AddFood handles the multipart form: name, description, price, category, image.
func (fc *FoodController) AddFood(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	description := strings.TrimSpace(c.PostForm("description"))
	priceStr := strings.TrimSpace(c.PostForm("price"))
	category := strings.TrimSpace(c.PostForm("category"))

	if name == "" || description == "" || priceStr == "" || category == "" {
		utils.RespondFail(c, "Please provide all required fields: name, description, price, category")
		return
	}

	price, err := parsePrice(priceStr)
	if err != nil {
		utils.RespondFail(c, err.Error())
		return
	}

	image := models.DefaultFoodImage
	if fh := formImage(c, "image"); fh != nil {
		saved, ok := saveImage(c, fc.Images, fh)
		if !ok {
			return
		}
		image = saved
	}

	food := models.Food{
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		Image:       image,
	}

	if err := fc.DB.Create(&food).Error; err != nil {
		removeImage(fc.Images, image, models.DefaultFoodImage)
		utils.ErrorLogger.Printf("Error adding food item: %v", err)
		utils.RespondFail(c, "Error adding food item")
		return
	}

	utils.InfoLogger.Printf("Food added: %s (id=%d)", food.Name, food.ID)
	fc.Feed.BroadcastFoodAdded(food)
	utils.RespondJSON(c, "Food added successfully", food)
}

// RemoveFood deletes the record named by {"id"} and its image file.
func (fc *FoodController) RemoveFood(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var food models.Food
	if err := fc.DB.First(&food, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondFail(c, "Food item not found")
			return
		}
		utils.ErrorLogger.Printf("Error loading food %d: %v", id, err)
		utils.RespondFail(c, "Error removing food item")
		return
	}

	if err := fc.DB.Delete(&food).Error; err != nil {
		utils.ErrorLogger.Printf("Error removing food %d: %v", id, err)
		utils.RespondFail(c, "Error removing food item")
		return
	}

	removeImage(fc.Images, food.Image, models.DefaultFoodImage)
	fc.Feed.BroadcastFoodRemoved(food.ID)
	utils.RespondJSON(c, "Food removed successfully", nil)
}

func (fc *FoodController) GetFoodByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		utils.RespondFail(c, "Food item not found")
		return
	}

	var food models.Food
	if err := fc.DB.First(&food, id).Error; err != nil {
		utils.RespondFail(c, "Food item not found")
		return
	}
	utils.RespondJSON(c, "", food)
}

// UpdateFood changes the fields that were sent. A new image replaces the old
// file, which is deleted unless it is the placeholder.
func (fc *FoodController) UpdateFood(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		utils.RespondFail(c, "Food item not found")
		return
	}

	var food models.Food
	if err := fc.DB.First(&food, id).Error; err != nil {
		utils.RespondFail(c, "Food item not found")
		return
	}

	if v := strings.TrimSpace(c.PostForm("name")); v != "" {
		food.Name = v
	}
	if v := strings.TrimSpace(c.PostForm("description")); v != "" {
		food.Description = v
	}
	if v := strings.TrimSpace(c.PostForm("category")); v != "" {
		food.Category = v
	}
	if v := strings.TrimSpace(c.PostForm("price")); v != "" {
		price, err := parsePrice(v)
		if err != nil {
			utils.RespondFail(c, err.Error())
			return
		}
		food.Price = price
	}

	oldImage := food.Image
	if fh := formImage(c, "image"); fh != nil {
		saved, ok := saveImage(c, fc.Images, fh)
		if !ok {
			return
		}
		food.Image = saved
	}

	if err := fc.DB.Save(&food).Error; err != nil {
		if food.Image != oldImage {
			removeImage(fc.Images, food.Image, models.DefaultFoodImage)
		}
		utils.ErrorLogger.Printf("Error updating food %d: %v", id, err)
		utils.RespondFail(c, "Error updating food item")
		return
	}

	if food.Image != oldImage {
		removeImage(fc.Images, oldImage, models.DefaultFoodImage)
	}

	fc.Feed.BroadcastFoodUpdated(food)
	utils.RespondJSON(c, "Food item updated successfully", food)
}

type pagination struct {
	Current    int   `json:"current"`
	Total      int   `json:"total"`
	Count      int   `json:"count"`
	TotalItems int64 `json:"totalItems"`
}

// ListFoodsPaged serves the back office table: newest first, ?page&limit.
func (fc *FoodController) ListFoodsPaged(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var total int64
	if err := fc.DB.Model(&models.Food{}).Count(&total).Error; err != nil {
		utils.ErrorLogger.Printf("Error counting foods: %v", err)
		utils.RespondFail(c, "Error fetching food items")
		return
	}

	var foods []models.Food
	if err := fc.DB.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&foods).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching foods: %v", err)
		utils.RespondFail(c, "Error fetching food items")
		return
	}

	utils.RespondJSON(c, "", gin.H{
		"foods": foods,
		"pagination": pagination{
			Current:    page,
			Total:      int(math.Ceil(float64(total) / float64(limit))),
			Count:      len(foods),
			TotalItems: total,
		},
	})
}
