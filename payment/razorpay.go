package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sessionbot/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const defaultAPIURL = "https://api.razorpay.com/v1"

// RazorpayClient creates and fetches Razorpay payment links
type RazorpayClient struct {
	KeyID       string
	KeySecret   string
	CallbackURL string
	APIURL      string
	HTTPClient  *http.Client
}

// NewRazorpayClient creates a client for the live Razorpay API
func NewRazorpayClient(keyID, keySecret, callbackURL string) *RazorpayClient {
	return &RazorpayClient{
		KeyID:       keyID,
		KeySecret:   keySecret,
		CallbackURL: callbackURL,
		APIURL:      defaultAPIURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type notify struct {
	SMS   bool `json:"sms"`
	Email bool `json:"email"`
}

type createLinkRequest struct {
	Amount         int64    `json:"amount"`
	Currency       string   `json:"currency"`
	AcceptPartial  bool     `json:"accept_partial"`
	ReferenceID    string   `json:"reference_id"`
	Description    string   `json:"description"`
	Customer       customer `json:"customer"`
	Notify         notify   `json:"notify"`
	ReminderEnable bool     `json:"reminder_enable"`
	CallbackURL    string   `json:"callback_url,omitempty"`
	CallbackMethod string   `json:"callback_method,omitempty"`
}

// LinkEntity is the payment link object returned by the API and carried in webhooks
type LinkEntity struct {
	ID          string `json:"id"`
	ShortURL    string `json:"short_url"`
	Amount      int64  `json:"amount"`
	AmountPaid  int64  `json:"amount_paid"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id"`
}

func (e LinkEntity) toModel() *models.PaymentLink {
	return &models.PaymentLink{
		ID:       e.ID,
		ShortURL: e.ShortURL,
		Amount:   e.Amount,
		Status:   e.Status,
	}
}

// APIError is a non-2xx response from Razorpay
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay api error: %s (status: %d)", e.Body, e.StatusCode)
}

// CreatePaymentLink creates a link collecting amount paise from userID
func (c *RazorpayClient) CreatePaymentLink(ctx context.Context, userID int64, amount int64) (*models.PaymentLink, error) {
	reqBody := createLinkRequest{
		Amount:        amount,
		Currency:      "INR",
		AcceptPartial: false,
		ReferenceID:   fmt.Sprintf("user_%d_%s", userID, uuid.New().String()[:8]),
		Description:   fmt.Sprintf("Wallet recharge for user %d", userID),
		Customer: customer{
			Name: fmt.Sprintf("User_%d", userID),
		},
		Notify:         notify{SMS: false, Email: false},
		ReminderEnable: false,
		CallbackURL:    c.CallbackURL,
	}
	if c.CallbackURL != "" {
		reqBody.CallbackMethod = "get"
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var entity LinkEntity
	if err := c.do(ctx, http.MethodPost, "/payment_links", jsonBody, &entity); err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":      userID,
		"linkID":      entity.ID,
		"amount":      amount,
		"referenceID": entity.ReferenceID,
	}).Info("Created payment link")
	return entity.toModel(), nil
}

// FetchPaymentLink returns the current state of a link
func (c *RazorpayClient) FetchPaymentLink(ctx context.Context, linkID string) (*models.PaymentLink, error) {
	var entity LinkEntity
	if err := c.do(ctx, http.MethodGet, "/payment_links/"+url.PathEscape(linkID), nil, &entity); err != nil {
		return nil, fmt.Errorf("failed to fetch payment link %s: %w", linkID, err)
	}
	return entity.toModel(), nil
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Razorpay-Idempotency-Key", uuid.New().String())
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
