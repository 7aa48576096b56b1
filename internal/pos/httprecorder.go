package pos

import (
	"context"
	"net/http"
	"strings"

	"pharmacy_backend/internal/models"
)

// HTTPRecorder submits orders to POST {BaseURL}/api/transaction.
type HTTPRecorder struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPRecorder creates a recorder with a 15s client timeout.
func NewHTTPRecorder(baseURL, token string) *HTTPRecorder {
	return &HTTPRecorder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  newHTTPClient(),
	}
}

func (r *HTTPRecorder) Record(ctx context.Context, order Order) (*models.Transaction, error) {
	var txn models.Transaction
	if err := call(ctx, r.Client, "record transaction", http.MethodPost, r.BaseURL+"/api/transaction", r.Token, order, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}
