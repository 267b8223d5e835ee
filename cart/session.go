// Package cart holds the customer's in-progress order: the cart, promo
// discount, checkout and the simulated delivery tracking that follows.
package cart

import (
	"context"
	"sync"
	"time"
)

type Options struct {
	// DeliveryFee is used as given, zero included.
	DeliveryFee float64
	// ClearDelay is how long after confirmation the cart is emptied.
	ClearDelay time.Duration
	// Schedule has one offset per stage after the first.
	Schedule   []time.Duration
	InitialETA int
	ETAStep    int
	Now        func() time.Time
}

func DefaultOptions() Options {
	return Options{
		DeliveryFee: 50,
		ClearDelay:  2 * time.Second,
		Schedule:    DefaultSchedule,
		InitialETA:  30,
		ETAStep:     8,
		Now:         time.Now,
	}
}

// Session is safe for concurrent use. Subscribers are called without the
// lock held, on whichever goroutine caused the change.
type Session struct {
	mu   sync.Mutex
	opts Options

	phase  Phase
	items  map[string]int
	promo  *Promo
	order  *Order
	stage  int
	eta    int
	rating int

	clearTimer   *time.Timer
	clearPending bool
	stopTracking context.CancelFunc
	trackingDone chan struct{}
	closed       bool

	subs    map[int]func(Event)
	nextSub int
}

// NewSession fills zero-valued options, other than DeliveryFee, with defaults.
func NewSession(opts Options) *Session {
	def := DefaultOptions()
	if opts.ClearDelay <= 0 {
		opts.ClearDelay = def.ClearDelay
	}
	if len(opts.Schedule) != FinalStage {
		opts.Schedule = def.Schedule
	}
	if opts.InitialETA <= 0 {
		opts.InitialETA = def.InitialETA
	}
	if opts.ETAStep <= 0 {
		opts.ETAStep = def.ETAStep
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}

	return &Session{
		opts:  opts,
		items: make(map[string]int),
		subs:  make(map[int]func(Event)),
	}
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) stateLocked() State {
	items := make(map[string]int, len(s.items))
	for id, qty := range s.items {
		items[id] = qty
	}
	st := State{
		Phase:  s.phase,
		Items:  items,
		Order:  s.order,
		Stage:  s.stage,
		ETA:    s.eta,
		Rating: s.rating,
	}
	if s.promo != nil {
		p := *s.promo
		st.Promo = &p
	}
	return st
}

// notification is built under the lock and delivered after it is released.
type notification struct {
	event Event
	subs  []func(Event)
}

func (s *Session) notifyLocked(kind EventKind) notification {
	n := notification{event: Event{Kind: kind, State: s.stateLocked()}}
	for _, fn := range s.subs {
		n.subs = append(n.subs, fn)
	}
	return n
}

func (n notification) deliver() {
	for _, fn := range n.subs {
		fn(n.event)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Quantity(itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[itemID]
}

// Add increments the quantity of itemID.
func (s *Session) Add(itemID string) error {
	return s.adjust(itemID, 1)
}

// Remove decrements the quantity of itemID. The item is dropped at zero.
func (s *Session) Remove(itemID string) error {
	return s.adjust(itemID, -1)
}

func (s *Session) adjust(itemID string, delta int) error {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	qty := s.items[itemID] + delta
	if qty <= 0 {
		if _, ok := s.items[itemID]; !ok {
			s.mu.Unlock()
			return nil
		}
		delete(s.items, itemID)
	} else {
		s.items[itemID] = qty
	}
	n := s.notifyLocked(CartChanged)
	s.mu.Unlock()

	n.deliver()
	return nil
}

func (s *Session) editableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if !cartEditable(s.phase) {
		return ErrCartLocked
	}
	return nil
}

// Restore replaces the cart with a saved one. Non-positive quantities are
// dropped.
func (s *Session) Restore(items map[string]int) error {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = make(map[string]int, len(items))
	for id, qty := range items {
		if qty > 0 {
			s.items[id] = qty
		}
	}
	n := s.notifyLocked(CartChanged)
	s.mu.Unlock()

	n.deliver()
	return nil
}

// Clear empties the cart and drops any promo.
func (s *Session) Clear() error {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = make(map[string]int)
	s.promo = nil
	n := s.notifyLocked(CartCleared)
	s.mu.Unlock()

	n.deliver()
	return nil
}

func (s *Session) Totals(prices Prices) Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked(prices)
}

func (s *Session) totalsLocked(prices Prices) Totals {
	pct := 0.0
	if s.promo != nil {
		pct = s.promo.Percent
	}
	return ComputeTotals(s.items, prices, s.opts.DeliveryFee, pct)
}

// ApplyPromo activates a discount code. While one is active every code is
// rejected with ErrPromoAlreadyApplied.
func (s *Session) ApplyPromo(code string) (Promo, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return Promo{}, err
	}
	if s.promo != nil {
		s.mu.Unlock()
		return Promo{}, ErrPromoAlreadyApplied
	}
	promo, ok := LookupPromo(code)
	if !ok {
		s.mu.Unlock()
		return Promo{}, ErrInvalidPromoCode
	}
	s.promo = &promo
	n := s.notifyLocked(PromoChanged)
	s.mu.Unlock()

	n.deliver()
	return promo, nil
}

func (s *Session) RemovePromo() {
	s.mu.Lock()
	if s.promo == nil || !cartEditable(s.phase) {
		s.mu.Unlock()
		return
	}
	s.promo = nil
	n := s.notifyLocked(PromoChanged)
	s.mu.Unlock()

	n.deliver()
}

func (s *Session) transitionLocked(to Phase) error {
	if s.closed {
		return ErrClosed
	}
	if err := CanTransition(s.phase, to); err != nil {
		return err
	}
	s.phase = to
	return nil
}

// BeginCheckout moves from the cart to the checkout form. A cart with
// nothing priced in it returns ErrEmptyCart and stays where it is.
func (s *Session) BeginCheckout(prices Prices) error {
	s.mu.Lock()
	if s.phase == Browsing && !s.closed && len(pricedLines(s.items, prices)) == 0 {
		s.mu.Unlock()
		return ErrEmptyCart
	}
	if err := s.transitionLocked(Checkout); err != nil {
		s.mu.Unlock()
		return err
	}
	n := s.notifyLocked(PhaseChanged)
	s.mu.Unlock()

	n.deliver()
	return nil
}

// BackToCart leaves the checkout form.
func (s *Session) BackToCart() error {
	s.mu.Lock()
	if err := s.transitionLocked(Browsing); err != nil {
		s.mu.Unlock()
		return err
	}
	n := s.notifyLocked(PhaseChanged)
	s.mu.Unlock()

	n.deliver()
	return nil
}

// PlaceOrder confirms the order. Missing contact fields are reported before
// an empty cart; neither changes state. The cart is emptied after
// Options.ClearDelay.
func (s *Session) PlaceOrder(contact Contact, prices Prices) (*Order, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if err := CanTransition(s.phase, Confirmed); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if missing := contact.Missing(); len(missing) > 0 {
		s.mu.Unlock()
		return nil, &MissingFieldsError{Fields: missing}
	}
	lines := pricedLines(s.items, prices)
	if len(lines) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyCart
	}

	now := s.opts.Now()
	order := &Order{
		Label:    OrderLabel(now),
		PlacedAt: now,
		Contact:  contact,
		Lines:    lines,
		Totals:   s.totalsLocked(prices),
	}
	if s.promo != nil {
		p := *s.promo
		order.Promo = &p
	}
	s.order = order

	s.phase = Confirmed
	n := s.notifyLocked(PhaseChanged)
	s.clearPending = true
	s.clearTimer = time.AfterFunc(s.opts.ClearDelay, s.clearAfterOrder)
	s.mu.Unlock()

	n.deliver()
	return order, nil
}

func (s *Session) clearAfterOrder() {
	s.mu.Lock()
	if !s.clearPending || s.closed {
		s.mu.Unlock()
		return
	}
	n := s.clearOrderedLocked()
	s.mu.Unlock()

	n.deliver()
}

func (s *Session) clearOrderedLocked() notification {
	s.clearPending = false
	s.clearTimer = nil
	s.items = make(map[string]int)
	s.promo = nil
	return s.notifyLocked(CartCleared)
}

// StartTracking begins the simulated delivery. Stages advance on their own
// goroutine until the last stage, ctx is cancelled or the session is closed.
func (s *Session) StartTracking(ctx context.Context) error {
	s.mu.Lock()
	if err := s.transitionLocked(Tracking); err != nil {
		s.mu.Unlock()
		return err
	}
	s.stage = 0
	s.eta = s.opts.InitialETA
	n := s.notifyLocked(PhaseChanged)

	ctx, cancel := context.WithCancel(ctx)
	s.stopTracking = cancel
	done := make(chan struct{})
	s.trackingDone = done
	schedule := append([]time.Duration(nil), s.opts.Schedule...)
	s.mu.Unlock()

	n.deliver()
	go s.track(ctx, schedule, done)
	return nil
}

func (s *Session) track(ctx context.Context, schedule []time.Duration, done chan struct{}) {
	defer close(done)

	start := time.Now()
	for i, offset := range schedule {
		timer := time.NewTimer(offset - time.Since(start))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if !s.advance(ctx, i+1) {
			return
		}
	}
}

// advance moves to stage. It reports false when tracking should stop.
func (s *Session) advance(ctx context.Context, stage int) bool {
	s.mu.Lock()
	if s.closed || ctx.Err() != nil || s.phase != Tracking || stage <= s.stage {
		s.mu.Unlock()
		return false
	}
	s.stage = stage
	s.eta = nextETA(s.eta, stage, s.opts.ETAStep)
	notes := []notification{s.notifyLocked(StageAdvanced)}
	if stage == FinalStage {
		s.phase = Delivered
		s.stopTracking = nil
		notes = append(notes, s.notifyLocked(PhaseChanged))
	}
	s.mu.Unlock()

	for _, n := range notes {
		n.deliver()
	}
	return stage < FinalStage
}

// TrackingDone is closed when the tracking goroutine exits. It is nil before
// StartTracking.
func (s *Session) TrackingDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackingDone
}

// Rate records a 1 to 5 star rating for a delivered order.
func (s *Session) Rate(stars int) error {
	if stars < 1 || stars > 5 {
		return ErrInvalidRating
	}

	s.mu.Lock()
	if s.phase != Delivered {
		s.mu.Unlock()
		return &TransitionError{From: s.phase, To: Delivered}
	}
	s.rating = stars
	n := s.notifyLocked(Rated)
	s.mu.Unlock()

	n.deliver()
	return nil
}

// NewOrder returns to browsing after an order. Pending tracking stops and a
// pending cart clear happens immediately.
func (s *Session) NewOrder() error {
	s.mu.Lock()
	if s.phase != Confirmed && s.phase != Tracking && s.phase != Delivered {
		s.mu.Unlock()
		return &TransitionError{From: s.phase, To: Browsing}
	}

	s.cancelTimersLocked()
	var notes []notification
	if s.clearPending {
		notes = append(notes, s.clearOrderedLocked())
	}

	if err := s.transitionLocked(Browsing); err != nil {
		s.mu.Unlock()
		return err
	}
	s.order = nil
	s.stage = 0
	s.eta = 0
	s.rating = 0
	notes = append(notes, s.notifyLocked(PhaseChanged))
	s.mu.Unlock()

	for _, n := range notes {
		n.deliver()
	}
	return nil
}

func (s *Session) cancelTimersLocked() {
	if s.stopTracking != nil {
		s.stopTracking()
		s.stopTracking = nil
	}
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
}

// Close stops pending stage advances and the pending cart clear. Further
// operations return ErrClosed. It does not wait for the tracking goroutine;
// use TrackingDone for that.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelTimersLocked()
	s.clearPending = false
}
