// Package midtrans talks to the Midtrans Snap payment gateway: it opens
// checkout sessions and interprets payment notifications.
package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// SandboxSnapURL is the Snap create-transaction endpoint in sandbox mode
	SandboxSnapURL = "https://app.sandbox.midtrans.com/snap/v1/transactions"
	// DefaultTimeout is the HTTP client timeout for gateway calls
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Midtrans client
type Config struct {
	SnapURL string
	// AuthString is the pre-encoded Basic credential. When empty it is
	// derived from ServerKey.
	AuthString string
	ServerKey  string
	// AppURL is the frontend base used for the checkout callbacks
	AppURL  string
	Timeout time.Duration
}

// Client creates Snap checkout sessions
type Client struct {
	snapURL    string
	authString string
	appURL     string
	httpClient *http.Client
}

// NewClient creates a new Midtrans client
func NewClient(config Config) *Client {
	if config.SnapURL == "" {
		config.SnapURL = SandboxSnapURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	authString := config.AuthString
	if authString == "" && config.ServerKey != "" {
		authString = base64.StdEncoding.EncodeToString([]byte(config.ServerKey + ":"))
	}

	return &Client{
		snapURL:    config.SnapURL,
		authString: authString,
		appURL:     strings.TrimRight(config.AppURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// TransactionDetails identifies the order being paid
type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

// CreditCard holds card payment options
type CreditCard struct {
	Secure bool `json:"secure"`
}

// CustomerDetails identifies the payer
type CustomerDetails struct {
	Email string `json:"email"`
}

// Callbacks are the frontend pages Snap redirects to
type Callbacks struct {
	Finish   string `json:"finish"`
	Unfinish string `json:"unfinish"`
	Error    string `json:"error"`
}

// SnapRequest is the create-transaction payload
type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CreditCard         CreditCard         `json:"credit_card"`
	CustomerDetails    CustomerDetails    `json:"customer_details"`
	Callbacks          Callbacks          `json:"callbacks"`
}

// SnapResponse is the create-transaction reply
type SnapResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// APIError represents a Midtrans error response
type APIError struct {
	StatusCode    int      `json:"-"`
	ErrorMessages []string `json:"error_messages"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("midtrans API error (status %d): %s", e.StatusCode, strings.Join(e.ErrorMessages, "; "))
}

// CheckoutRequest builds the Snap payload for an order
func (c *Client) CheckoutRequest(orderID string, amount int64, email string) SnapRequest {
	return SnapRequest{
		TransactionDetails: TransactionDetails{
			OrderID:     orderID,
			GrossAmount: amount,
		},
		CreditCard: CreditCard{Secure: true},
		CustomerDetails: CustomerDetails{
			Email: email,
		},
		Callbacks: Callbacks{
			Finish:   c.appURL + "/success-checkout",
			Unfinish: c.appURL + "/transaction/unfinish",
			Error:    c.appURL + "/transaction/error",
		},
	}
}

// CreateTransaction opens a Snap checkout session and returns the redirect URL
func (c *Client) CreateTransaction(ctx context.Context, orderID string, amount int64, email string) (string, error) {
	var result SnapResponse
	if err := c.doRequest(ctx, http.MethodPost, c.CheckoutRequest(orderID, amount, email), &result); err != nil {
		return "", err
	}
	if result.RedirectURL == "" {
		return "", fmt.Errorf("midtrans returned no redirect_url for order %s", orderID)
	}
	return result.RedirectURL, nil
}

// doRequest performs a JSON request against the Snap endpoint
func (c *Client) doRequest(ctx context.Context, method string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.snapURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+c.authString)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || len(apiErr.ErrorMessages) == 0 {
			apiErr.ErrorMessages = []string{strings.TrimSpace(string(respBody))}
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
