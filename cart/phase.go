package cart

import (
	"fmt"
	"strings"
)

// Phase is where the session is in the order lifecycle.
type Phase int

const (
	Browsing Phase = iota
	Checkout
	Confirmed
	Tracking
	// Delivered is terminal for the order. Only NewOrder leaves it.
	Delivered
)

var phaseNames = map[Phase]string{
	Browsing:  "browsing",
	Checkout:  "checkout",
	Confirmed: "confirmed",
	Tracking:  "tracking",
	Delivered: "delivered",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// validTransitions is the authoritative lifecycle definition.
var validTransitions = map[Phase][]Phase{
	Browsing:  {Checkout},
	Checkout:  {Browsing, Confirmed},
	Confirmed: {Tracking, Browsing},
	Tracking:  {Delivered, Browsing},
	Delivered: {Browsing},
}

// TransitionError reports an operation attempted from the wrong phase.
type TransitionError struct {
	From Phase
	To   Phase
}

func (e *TransitionError) Error() string {
	nexts := ValidTransitionsFrom(e.From)
	valid := make([]string, len(nexts))
	for i, p := range nexts {
		valid[i] = p.String()
	}
	return fmt.Sprintf("invalid transition: %s → %s (valid from %s: %s)",
		e.From, e.To, e.From, strings.Join(valid, ", "))
}

func ValidTransitionsFrom(p Phase) []Phase {
	return validTransitions[p]
}

func CanTransition(from, to Phase) error {
	for _, next := range validTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// cartEditable reports the phases in which the cart is on screen.
func cartEditable(p Phase) bool {
	return p == Browsing || p == Checkout
}
