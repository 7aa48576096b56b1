package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/guonaihong/gout"

	"pharmacy_backend/internal/models"
)

// APIError is a non-2xx answer from the pharmacy API.
type APIError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %d: %s", e.Op, e.StatusCode, e.Message)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// call sends a GET or POST and decodes a 2xx body into out. body may be nil.
func call(ctx context.Context, client *http.Client, op, method, url, token string, body, out interface{}) error {
	var (
		code int
		raw  []byte
	)
	req := gout.New(client).GET(url)
	if method == http.MethodPost {
		req = gout.New(client).POST(url)
	}
	req = req.WithContext(ctx)
	if token != "" {
		req = req.SetHeader(gout.H{"Authorization": "Bearer " + token})
	}
	if body != nil {
		req = req.SetJSON(body)
	}
	if err := req.BindBody(&raw).Code(&code).Do(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if code < 200 || code > 299 {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(code)
		}
		return &APIError{Op: op, StatusCode: code, Code: apiErr.Code, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

// Login exchanges credentials for a bearer token.
func Login(ctx context.Context, baseURL, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"email": email, "password": password}
	err := call(ctx, newHTTPClient(), "login", http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/login", "", payload, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Catalog reads products for the till.
type Catalog struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewCatalog(baseURL, token string) *Catalog {
	return &Catalog{BaseURL: strings.TrimRight(baseURL, "/"), Token: token, Client: newHTTPClient()}
}

// Product fetches one product with its current stock and price.
func (c *Catalog) Product(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	url := fmt.Sprintf("%s/api/inventory/%d", c.BaseURL, id)
	if err := call(ctx, c.Client, "get product", http.MethodGet, url, c.Token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
