package cart

import "time"

// FinalStage is the delivered stage.
const FinalStage = 3

type Stage struct {
	Title       string
	Description string
}

var Stages = [FinalStage + 1]Stage{
	{"Order Confirmed", "Your order has been received and confirmed"},
	{"Preparing Food", "Our chefs are preparing your delicious meal"},
	{"Out for Delivery", "Your order is on the way to your location"},
	{"Delivered", "Your order has been delivered successfully"},
}

// DefaultSchedule holds the offsets, from the start of tracking, at which
// stages 1, 2 and 3 are reached.
var DefaultSchedule = []time.Duration{3 * time.Second, 8 * time.Second, 15 * time.Second}

// nextETA lowers the estimate on reaching stage n.
func nextETA(current, stage, step int) int {
	eta := current - stage*step
	if eta < 0 {
		return 0
	}
	return eta
}
