package controllers

import (
	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminController struct {
	DB *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{DB: db}
}

// GetDashboardStats returns the counters shown on the back office landing page.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	var stats struct {
		TotalFoods      int64                  `json:"totalFoods"`
		TotalUsers      int64                  `json:"totalUsers"`
		FoodsByCategory []models.CategoryCount `json:"foodsByCategory"`
		RecentFoods     []models.Food          `json:"recentFoods"`
	}

	if err := ac.DB.Model(&models.Food{}).Count(&stats.TotalFoods).Error; err != nil {
		utils.ErrorLogger.Printf("Error counting foods: %v", err)
		utils.RespondFail(c, "Error fetching dashboard statistics")
		return
	}

	if err := ac.DB.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		utils.ErrorLogger.Printf("Error counting users: %v", err)
		utils.RespondFail(c, "Error fetching dashboard statistics")
		return
	}

	if err := ac.DB.Model(&models.Food{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("count DESC").
		Scan(&stats.FoodsByCategory).Error; err != nil {
		utils.ErrorLogger.Printf("Error grouping foods by category: %v", err)
		utils.RespondFail(c, "Error fetching dashboard statistics")
		return
	}

	if err := ac.DB.Order("id DESC").Limit(5).Find(&stats.RecentFoods).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching recent foods: %v", err)
		utils.RespondFail(c, "Error fetching dashboard statistics")
		return
	}

	if stats.FoodsByCategory == nil {
		stats.FoodsByCategory = []models.CategoryCount{}
	}

	utils.RespondJSON(c, "", stats)
}

// ListUsers returns every account, newest first. Secrets never serialize.
func (ac *AdminController) ListUsers(c *gin.Context) {
	var users []models.User
	if err := ac.DB.Order("id DESC").Find(&users).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching users: %v", err)
		utils.RespondFail(c, "Error fetching users")
		return
	}
	utils.RespondJSON(c, "", users)
}
