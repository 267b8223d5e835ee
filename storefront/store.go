// Package storefront is the customer-side client: the merged menu, the cart
// session and the toast notifications shown while browsing.
package storefront

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/arisrestaurant/food-delivery/cart"
	"github.com/arisrestaurant/food-delivery/utils"
)

const (
	DefaultPollInterval    = 10 * time.Second
	DefaultNotificationTTL = 5 * time.Second
)

type Options struct {
	PollInterval    time.Duration
	NotificationTTL time.Duration
	// Token and Syncer, when both set, mirror every cart change to the
	// signed-in account.
	Token  string
	Syncer CartSyncer
	// Watcher, when set, makes Run refresh as soon as the server reports a
	// menu change. Polling continues as a fallback.
	Watcher MenuWatcher
}

type Notification struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}

type EventKind int

const (
	CatalogUpdated EventKind = iota
	FetchFailed
	NotificationsChanged
)

type Event struct {
	Kind  EventKind
	Added []Item
	Err   error
}

// Store is passed to whatever renders the storefront. It is safe for
// concurrent use.
type Store struct {
	mu      sync.Mutex
	source  CatalogSource
	carts   CartStore
	session *cart.Session
	opts    Options

	catalog *Catalog
	fetched bool
	lastErr error

	notes    []Notification
	nextNote uint64
	timers   map[uint64]*time.Timer

	subs    map[int]func(Event)
	nextSub int

	stopCartEvents func()
	closed         bool
}

func NewStore(source CatalogSource, carts CartStore, session *cart.Session, opts Options) (*Store, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = DefaultNotificationTTL
	}

	bundled, err := BundledMenu()
	if err != nil {
		return nil, err
	}

	s := &Store{
		source:  source,
		carts:   carts,
		session: session,
		opts:    opts,
		catalog: NewCatalog(bundled),
		timers:  make(map[uint64]*time.Timer),
		subs:    make(map[int]func(Event)),
	}
	s.stopCartEvents = session.Subscribe(s.persistCart)
	return s, nil
}

func (s *Store) Session() *cart.Session {
	return s.session
}

// LoadCart restores the cart saved by an earlier run.
func (s *Store) LoadCart() error {
	items, err := s.carts.Load()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return s.session.Restore(items)
}

func (s *Store) persistCart(ev cart.Event) {
	var err error
	switch ev.Kind {
	case cart.CartChanged:
		err = s.carts.Save(ev.State.Items)
	case cart.CartCleared:
		err = s.carts.Remove()
	default:
		return
	}
	if err != nil {
		utils.ErrorLogger.Printf("Error persisting cart: %v", err)
	}

	if s.opts.Token == "" || s.opts.Syncer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.opts.Syncer.SaveCart(ctx, s.opts.Token, ev.State.Items); err != nil {
		utils.ErrorLogger.Printf("Error syncing cart: %v", err)
	}
}

func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
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

func (s *Store) subscribersLocked() []func(Event) {
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func emit(subs []func(Event), events ...Event) {
	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// Refresh fetches the server menu once and merges it in. On failure the
// current menu is kept and the error is remembered.
func (s *Store) Refresh(ctx context.Context) error {
	items, err := s.source.ListFoods(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.lastErr = err
		subs := s.subscribersLocked()
		s.mu.Unlock()

		utils.ErrorLogger.Printf("Error fetching food list: %v", err)
		emit(subs, Event{Kind: FetchFailed, Err: err})
		return err
	}

	added := s.catalog.Merge(items)
	first := !s.fetched
	s.fetched = true
	s.lastErr = nil

	events := []Event{{Kind: CatalogUpdated, Added: added}}
	// the first load is the menu itself, not news
	if !first && len(added) > 0 {
		for _, it := range added {
			s.notifyLocked("New dish added: "+it.Name, "success")
		}
		events = append(events, Event{Kind: NotificationsChanged})
	}
	subs := s.subscribersLocked()
	s.mu.Unlock()

	emit(subs, events...)
	return nil
}

// Run refreshes immediately and then every PollInterval until ctx is done.
// Each tick makes a single attempt.
func (s *Store) Run(ctx context.Context) {
	_ = s.Refresh(ctx)

	if s.opts.Watcher != nil {
		go s.follow(ctx)
	}

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// follow keeps a menu feed connection open, reconnecting after
// PollInterval whenever it drops.
func (s *Store) follow(ctx context.Context) {
	for {
		err := s.opts.Watcher.WatchMenu(ctx, func(event string) {
			_ = s.Refresh(ctx)
		})
		if ctx.Err() != nil {
			return
		}
		utils.InfoLogger.Debugf("Menu feed disconnected: %v", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.PollInterval):
		}
	}
}

// Notify shows a message that disappears after NotificationTTL.
func (s *Store) Notify(message, level string) uint64 {
	s.mu.Lock()
	id := s.notifyLocked(message, level)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	emit(subs, Event{Kind: NotificationsChanged})
	return id
}

func (s *Store) notifyLocked(message, level string) uint64 {
	s.nextNote++
	id := s.nextNote
	s.notes = append(s.notes, Notification{
		ID:        id,
		Message:   message,
		Level:     level,
		CreatedAt: time.Now(),
	})
	s.timers[id] = time.AfterFunc(s.opts.NotificationTTL, func() { s.Dismiss(id) })
	return id
}

func (s *Store) Dismiss(id uint64) {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	removed := false
	for i, n := range s.notes {
		if n.ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			removed = true
			break
		}
	}
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if removed {
		emit(subs, Event{Kind: NotificationsChanged})
	}
}

func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.notes...)
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Items()
}

func (s *Store) Prices() cart.Prices {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Prices()
}

// FindItem matches an id exactly, or else a name ignoring case.
func (s *Store) FindItem(query string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it, ok := s.catalog.Get(query); ok {
		return it, true
	}
	for _, it := range s.catalog.items {
		if strings.EqualFold(it.Name, strings.TrimSpace(query)) {
			return it, true
		}
	}
	return Item{}, false
}

func (s *Store) Totals() cart.Totals {
	return s.session.Totals(s.Prices())
}

func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close stops notification timers, detaches from the session and closes it.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.stopCartEvents()
	s.session.Close()
}
