package services

import (
	"time"

	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/utils"
	"gorm.io/gorm"
)

// ResetTokenSweeper periodically clears password reset tokens that have
// expired so they cannot be matched again.
type ResetTokenSweeper struct {
	DB       *gorm.DB
	StopChan chan struct{}
	Interval time.Duration
	Now      func() time.Time
}

func NewResetTokenSweeper(db *gorm.DB) *ResetTokenSweeper {
	return &ResetTokenSweeper{
		DB:       db,
		StopChan: make(chan struct{}),
		Interval: time.Hour,
		Now:      time.Now,
	}
}

func (s *ResetTokenSweeper) Start() {
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.Sweep(); err != nil {
					utils.ErrorLogger.Printf("Error sweeping reset tokens: %v", err)
				}
			case <-s.StopChan:
				return
			}
		}
	}()
}

func (s *ResetTokenSweeper) Stop() {
	close(s.StopChan)
}

// Sweep clears every expired reset token and returns how many rows changed.
func (s *ResetTokenSweeper) Sweep() (int64, error) {
	result := s.DB.Model(&models.User{}).
		Where("reset_password_token IS NOT NULL AND reset_password_expires < ?", s.Now()).
		Updates(map[string]interface{}{
			"reset_password_token":   nil,
			"reset_password_expires": nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		utils.InfoLogger.Printf("Cleared %d expired reset tokens", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
