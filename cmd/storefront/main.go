package main

import (
	"os"

	"github.com/arisrestaurant/food-delivery/utils"
)

func main() {
	utils.InitLogger()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
