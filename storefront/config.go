package storefront

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arisrestaurant/food-delivery/cart"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIURL       string        `yaml:"api_url"`
	CartFile     string        `yaml:"cart_file"`
	DeliveryFee  float64       `yaml:"delivery_fee"`
	PollInterval time.Duration `yaml:"poll_interval"`
	// Token is a session token from /api/auth/login. Optional.
	Token string `yaml:"token"`
	// Contact prefills the checkout form.
	Contact cart.Contact `yaml:"contact"`
}

func DefaultConfig() Config {
	cartFile := "storefront_cart.json"
	if home, err := os.UserHomeDir(); err == nil {
		cartFile = filepath.Join(home, ".food-delivery", "cart.json")
	}
	return Config{
		APIURL:       "http://localhost:4000",
		CartFile:     cartFile,
		DeliveryFee:  50,
		PollInterval: DefaultPollInterval,
	}
}

// LoadConfig overlays the YAML file at path on the defaults. A missing file
// is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DeliveryFee < 0 {
		return cfg, fmt.Errorf("delivery_fee must not be negative")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return cfg, nil
}
