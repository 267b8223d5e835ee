package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arisrestaurant/food-delivery/cart"
	"github.com/arisrestaurant/food-delivery/menufeed"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	batches [][]Item
	err     error
	calls   int
}

func (f *fakeSource) ListFoods(ctx context.Context) ([]Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	if len(f.batches) > 1 {
		f.batches = f.batches[1:]
	}
	return batch, nil
}

func newTestStore(t *testing.T, source CatalogSource, opts Options) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cart.json")

	sessOpts := cart.DefaultOptions()
	sessOpts.ClearDelay = 10 * time.Millisecond
	store, err := NewStore(source, NewFileCartStore(path), cart.NewSession(sessOpts), opts)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store, path
}

func TestBundledMenu(t *testing.T) {
	items, err := BundledMenu()
	require.NoError(t, err)
	require.NotEmpty(t, items)

	for _, it := range items {
		assert.True(t, strings.HasPrefix(it.ID, BundledPrefix), it.ID)
		assert.True(t, it.Bundled)
		assert.Greater(t, it.Price, 0.0)
	}
}

func TestCatalogMergeIsIdempotentAndAdditive(t *testing.T) {
	c := NewCatalog([]Item{{ID: "bundled-1", Name: "Salad", Price: 100}})

	added := c.Merge([]Item{{ID: "7", Name: "Dosa", Price: 90}})
	assert.Len(t, added, 1)

	added = c.Merge([]Item{{ID: "7", Name: "Masala Dosa", Price: 95}})
	assert.Empty(t, added)
	assert.Equal(t, 2, c.Len())

	it, ok := c.Get("7")
	require.True(t, ok)
	assert.Equal(t, "Masala Dosa", it.Name)

	c.Merge(nil)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, cart.Prices{"bundled-1": 100, "7": 95}, c.Prices())
}

func TestRefreshNotifiesOnlyForLaterAdditions(t *testing.T) {
	source := &fakeSource{batches: [][]Item{
		{{ID: "1", Name: "Dosa", Price: 90}},
		{{ID: "1", Name: "Dosa", Price: 90}, {ID: "2", Name: "Idli", Price: 60}},
	}}
	store, _ := newTestStore(t, source, Options{NotificationTTL: 50 * time.Millisecond})

	require.NoError(t, store.Refresh(context.Background()))
	assert.Empty(t, store.Notifications())

	require.NoError(t, store.Refresh(context.Background()))
	notes := store.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "New dish added: Idli", notes[0].Message)
	assert.Equal(t, "success", notes[0].Level)

	_, ok := store.FindItem("idli")
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		return len(store.Notifications()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRefreshFailureKeepsMenu(t *testing.T) {
	source := &fakeSource{batches: [][]Item{{{ID: "1", Name: "Dosa", Price: 90}}}}
	store, _ := newTestStore(t, source, Options{})

	require.NoError(t, store.Refresh(context.Background()))
	before := store.Items()

	var failed []error
	store.Subscribe(func(ev Event) {
		if ev.Kind == FetchFailed {
			failed = append(failed, ev.Err)
		}
	})

	source.mu.Lock()
	source.err = errors.New("connection refused")
	source.mu.Unlock()

	err := store.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, before, store.Items())
	assert.EqualError(t, store.LastError(), "connection refused")
	assert.Len(t, failed, 1)
}

func TestCartIsPersistedAndRestored(t *testing.T) {
	store, path := newTestStore(t, &fakeSource{}, Options{})
	sess := store.Session()

	require.NoError(t, sess.Add("bundled-1"))
	require.NoError(t, sess.Add("bundled-1"))
	require.NoError(t, sess.Add("bundled-2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved map[string]int
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, map[string]int{"bundled-1": 2, "bundled-2": 1}, saved)

	next, err := NewStore(&fakeSource{}, NewFileCartStore(path), cart.NewSession(cart.DefaultOptions()), Options{})
	require.NoError(t, err)
	defer next.Close()
	require.NoError(t, next.LoadCart())
	assert.Equal(t, 2, next.Session().Quantity("bundled-1"))
}

func TestCartFileRemovedAfterOrder(t *testing.T) {
	store, path := newTestStore(t, &fakeSource{}, Options{})
	sess := store.Session()

	require.NoError(t, sess.Add("bundled-1"))
	require.NoError(t, sess.BeginCheckout(store.Prices()))
	_, err := sess.PlaceOrder(cart.Contact{
		FirstName: "Asha", LastName: "Rao", Email: "asha@example.com",
		Street: "12 MG Road", City: "Pune", Phone: "9800000000",
	}, store.Prices())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, time.Second, 5*time.Millisecond)
}

type recordingSyncer struct {
	mu    sync.Mutex
	token string
	last  map[string]int
}

func (r *recordingSyncer) SaveCart(ctx context.Context, token string, items map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = token
	r.last = items
	return nil
}

func TestCartSyncWhenSignedIn(t *testing.T) {
	syncer := &recordingSyncer{}
	store, _ := newTestStore(t, &fakeSource{}, Options{Token: "tok", Syncer: syncer})

	require.NoError(t, store.Session().Add("bundled-3"))

	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	assert.Equal(t, "tok", syncer.token)
	assert.Equal(t, map[string]int{"bundled-3": 1}, syncer.last)
}

func TestAPIClientListFoods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/food/list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":4,"name":"Dosa","description":"Crisp","price":90,"category":"South Indian","image":"food-x.jpg"}]}`))
	}))
	defer srv.Close()

	items, err := NewAPIClient(srv.URL+"/", time.Second).ListFoods(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "4", items[0].ID)
	assert.Equal(t, srv.URL+"/images/food-x.jpg", items[0].Image)
	assert.False(t, items[0].Bundled)
}

func TestAPIClientReportsFailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Error fetching food items"}`))
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL, time.Second).ListFoods(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error fetching food items")
}

func TestAPIClientSaveCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/auth/cart", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body struct {
			CartData map[string]int `json:"cartData"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]int{"4": 2}, body.CartData)
		_, _ = w.Write([]byte(`{"success":true,"message":"Cart saved"}`))
	}))
	defer srv.Close()

	err := NewAPIClient(srv.URL, time.Second).SaveCart(context.Background(), "tok", map[string]int{"4": 2})
	assert.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://api.example.com
cart_file: /tmp/cart.json
delivery_fee: 40
poll_interval: 3s
contact:
  first_name: Asha
  city: Pune
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", cfg.APIURL)
	assert.Equal(t, "/tmp/cart.json", cfg.CartFile)
	assert.Equal(t, 40.0, cfg.DeliveryFee)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, "Asha", cfg.Contact.FirstName)

	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.DeliveryFee)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
}

type fakeWatcher struct {
	events []string
}

func (f *fakeWatcher) WatchMenu(ctx context.Context, onChange func(event string)) error {
	for _, ev := range f.events {
		onChange(ev)
	}
	f.events = nil
	<-ctx.Done()
	return ctx.Err()
}

func TestRunRefreshesOnMenuFeedEvent(t *testing.T) {
	source := &fakeSource{batches: [][]Item{
		nil,
		{{ID: "12", Name: "Pav Bhaji", Price: 120}},
	}}
	store, _ := newTestStore(t, source, Options{
		PollInterval: time.Hour,
		Watcher:      &fakeWatcher{events: []string{"food_added"}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Run(ctx)

	require.Eventually(t, func() bool {
		_, ok := store.FindItem("12")
		return ok
	}, time.Second, 5*time.Millisecond)

	notes := store.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "New dish added: Pav Bhaji", notes[0].Message)
}

func TestAPIClientWatchMenu(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := menufeed.NewHub()
	r := gin.New()
	r.GET("/api/food/ws", hub.ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- NewAPIClient(srv.URL, time.Second).WatchMenu(ctx, func(event string) {
			got <- event
		})
	}()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	hub.BroadcastFoodRemoved(9)

	select {
	case ev := <-got:
		assert.Equal(t, menufeed.EventFoodRemoved, ev)
	case <-time.After(time.Second):
		t.Fatal("no menu feed event")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("WatchMenu did not return after cancel")
	}
}
