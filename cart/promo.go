package cart

import "strings"

type Promo struct {
	Code    string  `json:"code"`
	Percent float64 `json:"percent"`
}

var promoCodes = map[string]float64{
	"SAVE10":    10,
	"WELCOME20": 20,
	"FIRST15":   15,
	"STUDENT5":  5,
}

// NormalizePromoCode upper-cases and trims a user-entered code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func LookupPromo(code string) (Promo, bool) {
	code = NormalizePromoCode(code)
	pct, ok := promoCodes[code]
	if !ok {
		return Promo{}, false
	}
	return Promo{Code: code, Percent: pct}, true
}
