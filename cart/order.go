package cart

import (
	"strconv"
	"strings"
	"time"
)

// Contact is the delivery form filled in at checkout.
type Contact struct {
	FirstName     string `json:"firstName" yaml:"first_name"`
	LastName      string `json:"lastName" yaml:"last_name"`
	Email         string `json:"email" yaml:"email"`
	Street        string `json:"street" yaml:"street"`
	City          string `json:"city" yaml:"city"`
	State         string `json:"state" yaml:"state"`
	ZipCode       string `json:"zipCode" yaml:"zip_code"`
	Country       string `json:"country" yaml:"country"`
	Phone         string `json:"phone" yaml:"phone"`
	PaymentMethod string `json:"paymentMethod" yaml:"payment_method"`
}

// Missing returns the names of required fields that are blank after trimming.
func (c Contact) Missing() []string {
	required := []struct {
		name  string
		value string
	}{
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"email", c.Email},
		{"street", c.Street},
		{"city", c.City},
		{"phone", c.Phone},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Order is the client-side record of a placed order. It is never sent to
// the server.
type Order struct {
	Label    string    `json:"label"`
	PlacedAt time.Time `json:"placedAt"`
	Contact  Contact   `json:"contact"`
	Promo    *Promo    `json:"promo,omitempty"`
	Lines    []Line    `json:"lines"`
	Totals   Totals    `json:"totals"`
}

// OrderLabel is "ORD" followed by the last six digits of the millisecond clock.
func OrderLabel(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "ORD" + ms
}
