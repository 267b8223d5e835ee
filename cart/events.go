package cart

type EventKind int

const (
	CartChanged EventKind = iota
	CartCleared
	PromoChanged
	PhaseChanged
	StageAdvanced
	Rated
)

var eventNames = map[EventKind]string{
	CartChanged:   "cart_changed",
	CartCleared:   "cart_cleared",
	PromoChanged:  "promo_changed",
	PhaseChanged:  "phase_changed",
	StageAdvanced: "stage_advanced",
	Rated:         "rated",
}

func (k EventKind) String() string {
	return eventNames[k]
}

// State is a copy of the session taken when an event fires.
type State struct {
	Phase  Phase          `json:"phase"`
	Items  map[string]int `json:"items"`
	Promo  *Promo         `json:"promo,omitempty"`
	Order  *Order         `json:"order,omitempty"`
	Stage  int            `json:"stage"`
	ETA    int            `json:"eta"`
	Rating int            `json:"rating,omitempty"`
}

type Event struct {
	Kind  EventKind
	State State
}
