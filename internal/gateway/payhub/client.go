package payhub

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gatherhub/ticketing/internal/gateway"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const ordersPath = "/v1/orders"

type Config struct {
	BaseURL    string
	MerchantID string
	APIKey     string
	Secret     string
	Timeout    time.Duration
}

// Client talks to the PayHub gateway over HTTP. Requests carry an HMAC-SHA256
// body digest; inbound callbacks are verified against the same shared secret.
type Client struct {
	cfg Config
	hc  *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: timeout},
	}
}

type orderPayload struct {
	MerchantID    string `json:"merchant_id"`
	Reference     string `json:"reference"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description,omitempty"`
	CustomerEmail string `json:"customer_email"`
}

type orderReply struct {
	OrderRef string `json:"order_ref"`
	Status   string `json:"status"`
}

func (c *Client) OpenOrder(ctx context.Context, req *gateway.OrderRequest) (string, error) {
	// PayHub takes amounts as decimal major-unit strings ("500.00"), not
	// minor units.
	amount := decimal.New(req.Amount, -2).StringFixed(2)

	payload := orderPayload{
		MerchantID:    c.cfg.MerchantID,
		Reference:     req.BookingID,
		Amount:        amount,
		Currency:      req.Currency,
		Description:   req.Description,
		CustomerEmail: req.BuyerEmail,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("payhub: marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("payhub: new request: %w", err)
	}
	c.setHeaders(httpReq, body)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payhub: open order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		rbody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("payhub: open order: status %d: %s", resp.StatusCode, rbody)
	}

	var reply orderReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("payhub: decode reply: %w", err)
	}
	if reply.OrderRef == "" {
		return "", fmt.Errorf("payhub: empty order_ref in reply")
	}
	return reply.OrderRef, nil
}

func (c *Client) setHeaders(req *http.Request, body []byte) {
	hash := sha256.Sum256(body)
	digest := "SHA-256=" + base64.StdEncoding.EncodeToString(hash[:])

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("X-Merchant-ID", c.cfg.MerchantID)
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("Digest", digest)
	req.Header.Set("Signature", hex.EncodeToString(hmac256([]byte(c.cfg.Secret), []byte(digest))))
}

// VerifyCallback checks the webhook signature before the payload is trusted.
// Comparison is constant time.
func (c *Client) VerifyCallback(cb *gateway.Callback) error {
	want := Sign(c.cfg.Secret, cb.OrderRef, cb.PaymentRef, cb.Amount, cb.Status)
	if !hmac.Equal([]byte(want), []byte(cb.Signature)) {
		return gateway.ErrSignatureMismatch
	}
	return nil
}

// Sign computes the callback signature over PayHub's canonical string.
// Exported so tests and the sandbox simulator can produce valid proofs.
func Sign(secret, orderRef, paymentRef string, amount int64, status string) string {
	canonical := orderRef + "|" + paymentRef + "|" + strconv.FormatInt(amount, 10) + "|" + status
	return hex.EncodeToString(hmac256([]byte(secret), []byte(canonical)))
}

func hmac256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
