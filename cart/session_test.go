package cart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validContact() Contact {
	return Contact{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@example.com",
		Street:    "12 MG Road",
		City:      "Pune",
		Phone:     "9800000000",
	}
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.ClearDelay = 20 * time.Millisecond
	opts.Schedule = []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
	return opts
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	done := s.TrackingDone()
	require.NotNil(t, done)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tracking did not finish")
	}
}

func TestAddRemoveClampsAtZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		s := NewSession(DefaultOptions())
		expected := 0
		for step := 0; step < 40; step++ {
			if rng.Intn(2) == 0 {
				require.NoError(t, s.Add("a"))
				expected++
			} else {
				require.NoError(t, s.Remove("a"))
				if expected > 0 {
					expected--
				}
			}
			assert.Equal(t, expected, s.Quantity("a"))
		}
	}
}

func TestRemoveAtZeroDropsKey(t *testing.T) {
	s := NewSession(DefaultOptions())
	require.NoError(t, s.Add("a"))
	require.NoError(t, s.Remove("a"))

	_, present := s.State().Items["a"]
	assert.False(t, present)
}

func TestTotalsScenario(t *testing.T) {
	s := NewSession(DefaultOptions())
	require.NoError(t, s.Add("A"))
	require.NoError(t, s.Add("A"))
	require.NoError(t, s.Add("B"))

	_, err := s.ApplyPromo("SAVE10")
	require.NoError(t, err)

	totals := s.Totals(Prices{"A": 100, "B": 50})
	assert.Equal(t, 250.0, totals.Subtotal)
	assert.Equal(t, 50.0, totals.DeliveryFee)
	assert.Equal(t, 25.0, totals.Discount)
	assert.Equal(t, 275.0, totals.Total)
	assert.Equal(t, 3, totals.Quantity)
}

func TestTotalsSkipsUnpricedAndZeroItems(t *testing.T) {
	totals := ComputeTotals(map[string]int{"A": 1, "B": 0, "ghost": 4}, Prices{"A": 80, "B": 10}, 50, 0)

	assert.Equal(t, 80.0, totals.Subtotal)
	assert.Equal(t, 130.0, totals.Total)
	assert.Equal(t, 1, totals.Quantity)
}

func TestApplyPromo(t *testing.T) {
	s := NewSession(DefaultOptions())
	rec := &recorder{}
	s.Subscribe(rec.record)

	_, err := s.ApplyPromo("bogus")
	assert.ErrorIs(t, err, ErrInvalidPromoCode)
	assert.Nil(t, s.State().Promo)
	assert.Empty(t, rec.kinds(PromoChanged))

	promo, err := s.ApplyPromo("  welcome20 ")
	require.NoError(t, err)
	assert.Equal(t, Promo{Code: "WELCOME20", Percent: 20}, promo)

	_, err = s.ApplyPromo("SAVE10")
	assert.ErrorIs(t, err, ErrPromoAlreadyApplied)
	assert.Equal(t, 20.0, s.State().Promo.Percent)
	assert.Len(t, rec.kinds(PromoChanged), 1)

	s.RemovePromo()
	assert.Nil(t, s.State().Promo)

	promo, err = s.ApplyPromo("student5")
	require.NoError(t, err)
	assert.Equal(t, 5.0, promo.Percent)
}

func TestBeginCheckoutRejectsEmptyCart(t *testing.T) {
	s := NewSession(DefaultOptions())

	err := s.BeginCheckout(Prices{"A": 100})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, Browsing, s.Phase())

	require.NoError(t, s.Add("A"))
	require.NoError(t, s.BeginCheckout(Prices{"A": 100}))
	assert.Equal(t, Checkout, s.Phase())

	require.NoError(t, s.BackToCart())
	assert.Equal(t, Browsing, s.Phase())
}

func TestPlaceOrderReportsMissingFieldsFirst(t *testing.T) {
	s := NewSession(DefaultOptions())
	require.NoError(t, s.Add("A"))
	require.NoError(t, s.BeginCheckout(Prices{"A": 100}))
	require.NoError(t, s.Remove("A"))

	contact := validContact()
	contact.City = "   "
	contact.Phone = ""

	_, err := s.PlaceOrder(contact, Prices{"A": 100})
	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"city", "phone"}, missing.Fields)
	assert.Equal(t, Checkout, s.Phase())

	_, err = s.PlaceOrder(validContact(), Prices{"A": 100})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, Checkout, s.Phase())
	assert.Nil(t, s.State().Order)
}

func TestPlaceOrderRequiresCheckout(t *testing.T) {
	s := NewSession(DefaultOptions())
	require.NoError(t, s.Add("A"))

	_, err := s.PlaceOrder(validContact(), Prices{"A": 100})
	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, Browsing, terr.From)
	assert.Equal(t, Confirmed, terr.To)
}

func TestPlaceOrderClearsCartAfterDelay(t *testing.T) {
	opts := fastOptions()
	opts.Now = func() time.Time { return time.UnixMilli(1700000123456) }
	s := NewSession(opts)
	defer s.Close()

	rec := &recorder{}
	s.Subscribe(rec.record)

	require.NoError(t, s.Add("A"))
	require.NoError(t, s.Add("B"))
	_, err := s.ApplyPromo("FIRST15")
	require.NoError(t, err)
	require.NoError(t, s.BeginCheckout(Prices{"A": 200, "B": 100}))

	order, err := s.PlaceOrder(validContact(), Prices{"A": 200, "B": 100})
	require.NoError(t, err)
	assert.Equal(t, "ORD123456", order.Label)
	assert.Len(t, order.Lines, 2)
	assert.Equal(t, 300.0, order.Totals.Subtotal)
	assert.Equal(t, 45.0, order.Totals.Discount)
	assert.Equal(t, 305.0, order.Totals.Total)
	assert.Equal(t, "FIRST15", order.Promo.Code)
	assert.Equal(t, Confirmed, s.Phase())

	assert.ErrorIs(t, s.Add("A"), ErrCartLocked)

	assert.Eventually(t, func() bool {
		return len(rec.kinds(CartCleared)) == 1
	}, time.Second, 5*time.Millisecond)

	st := s.State()
	assert.Empty(t, st.Items)
	assert.Nil(t, st.Promo)
	require.NotNil(t, st.Order)
	assert.Equal(t, "ORD123456", st.Order.Label)
}

func TestTrackingAdvancesThroughAllStages(t *testing.T) {
	s := NewSession(fastOptions())
	defer s.Close()

	require.NoError(t, s.Add("A"))
	require.NoError(t, s.BeginCheckout(Prices{"A": 100}))
	_, err := s.PlaceOrder(validContact(), Prices{"A": 100})
	require.NoError(t, err)

	rec := &recorder{}
	s.Subscribe(rec.record)

	require.NoError(t, s.StartTracking(context.Background()))
	st := s.State()
	assert.Equal(t, Tracking, st.Phase)
	assert.Equal(t, 0, st.Stage)
	assert.Equal(t, 30, st.ETA)

	waitDone(t, s)

	advances := rec.kinds(StageAdvanced)
	require.Len(t, advances, 3)
	var stages, etas []int
	for _, ev := range advances {
		stages = append(stages, ev.State.Stage)
		etas = append(etas, ev.State.ETA)
	}
	assert.Equal(t, []int{1, 2, 3}, stages)
	assert.Equal(t, []int{22, 6, 0}, etas)
	assert.Equal(t, Delivered, s.Phase())

	assert.ErrorIs(t, s.Rate(6), ErrInvalidRating)
	require.NoError(t, s.Rate(5))
	assert.Equal(t, 5, s.State().Rating)
}

func TestTrackingStopsWhenContextCancelled(t *testing.T) {
	opts := fastOptions()
	opts.Schedule = []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 600 * time.Millisecond}
	s := NewSession(opts)
	defer s.Close()

	require.NoError(t, s.Add("A"))
	require.NoError(t, s.BeginCheckout(Prices{"A": 100}))
	_, err := s.PlaceOrder(validContact(), Prices{"A": 100})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.StartTracking(ctx))
	cancel()
	waitDone(t, s)

	st := s.State()
	assert.Equal(t, Tracking, st.Phase)
	assert.Equal(t, 0, st.Stage)
	assert.Equal(t, 30, st.ETA)
}

func TestCloseStopsTracking(t *testing.T) {
	opts := fastOptions()
	opts.Schedule = []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 600 * time.Millisecond}
	s := NewSession(opts)

	require.NoError(t, s.Add("A"))
	require.NoError(t, s.BeginCheckout(Prices{"A": 100}))
	_, err := s.PlaceOrder(validContact(), Prices{"A": 100})
	require.NoError(t, err)
	require.NoError(t, s.StartTracking(context.Background()))

	s.Close()
	waitDone(t, s)

	assert.Equal(t, 0, s.State().Stage)
	assert.ErrorIs(t, s.Add("A"), ErrClosed)
}

func TestNewOrderFlushesPendingClear(t *testing.T) {
	opts := fastOptions()
	opts.ClearDelay = time.Hour
	s := NewSession(opts)
	defer s.Close()

	require.NoError(t, s.Add("A"))
	require.NoError(t, s.BeginCheckout(Prices{"A": 100}))
	_, err := s.PlaceOrder(validContact(), Prices{"A": 100})
	require.NoError(t, err)

	require.NoError(t, s.NewOrder())
	st := s.State()
	assert.Equal(t, Browsing, st.Phase)
	assert.Empty(t, st.Items)
	assert.Nil(t, st.Order)

	require.NoError(t, s.Add("B"))
}

func TestUnsubscribe(t *testing.T) {
	s := NewSession(DefaultOptions())
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.record)

	require.NoError(t, s.Add("A"))
	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Add("A"))

	assert.Len(t, rec.kinds(CartChanged), 1)
}

func TestCanTransition(t *testing.T) {
	assert.NoError(t, CanTransition(Browsing, Checkout))
	assert.NoError(t, CanTransition(Tracking, Delivered))

	err := CanTransition(Browsing, Delivered)
	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, err.Error(), "browsing → delivered")
}

func TestOrderLabel(t *testing.T) {
	assert.Equal(t, "ORD000042", OrderLabel(time.UnixMilli(1700000000042)))
}
