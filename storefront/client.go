package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// CatalogSource supplies the server-side menu.
type CatalogSource interface {
	ListFoods(ctx context.Context) ([]Item, error)
}

// CartSyncer stores the cart snapshot on the signed-in account.
type CartSyncer interface {
	SaveCart(ctx context.Context, token string, items map[string]int) error
}

// MenuWatcher calls onChange for every catalog change the server pushes.
// It blocks until ctx is done or the connection drops.
type MenuWatcher interface {
	WatchMenu(ctx context.Context, onChange func(event string)) error
}

// APIClient talks to the food delivery REST API.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiFood struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

func (c *APIClient) do(req *http.Request) (*envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%s %s: status %d: decode response: %w", req.Method, req.URL.Path, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, msg)
	}
	return &env, nil
}

// ListFoods fetches GET /api/food/list. Image names become absolute URLs.
func (c *APIClient) ListFoods(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/food/list", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var foods []apiFood
	if err := json.Unmarshal(env.Data, &foods); err != nil {
		return nil, fmt.Errorf("decode food list: %w", err)
	}

	items := make([]Item, 0, len(foods))
	for _, f := range foods {
		items = append(items, Item{
			ID:          strconv.FormatUint(f.ID, 10),
			Name:        f.Name,
			Description: f.Description,
			Price:       f.Price,
			Category:    f.Category,
			Image:       c.baseURL + "/images/" + f.Image,
		})
	}
	return items, nil
}

// SaveCart sends PUT /api/auth/cart with the bearer token.
func (c *APIClient) SaveCart(ctx context.Context, token string, items map[string]int) error {
	body, err := json.Marshal(map[string]interface{}{"cartData": items})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/auth/cart", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	_, err = c.do(req)
	return err
}

// WatchMenu follows the server's menu feed at /api/food/ws.
func (c *APIClient) WatchMenu(ctx context.Context, onChange func(event string)) error {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/food/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial menu feed: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg struct {
			Event string `json:"event"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read menu feed: %w", err)
		}
		onChange(msg.Event)
	}
}
