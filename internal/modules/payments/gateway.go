package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DonaldKnut/marketdotcom/internal/shared/refgen"
)

// Gateway wraps the payment provider's REST API. Callers must treat any
// error as "payment not started / not confirmed": only an explicit success
// status in a verify response authorizes confirmation.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error)
	Verify(ctx context.Context, reference string) (VerifyResponse, error)
	VerifySignature(signature string, body []byte) bool
	GenerateReference() string
}

type InitializeRequest struct {
	Amount      float64 // naira; converted to kobo on the wire
	Email       string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

type InitializeResponse struct {
	AuthorizationURL string
	AccessCode       string
}

type VerifyResponse struct {
	Status string // "success", "failed", "abandoned", ...
	Amount float64
	PaidAt string
	Raw    json.RawMessage
}

// GatewayError marks an upstream provider failure.
type GatewayError struct {
	Op     string
	Status int
	Msg    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("paystack %s failed (%d): %s", e.Op, e.Status, e.Msg)
}

type PaystackGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystackGateway(secretKey, baseURL string) *PaystackGateway {
	return &PaystackGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (g *PaystackGateway) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	payload := map[string]any{
		"amount":       int64(req.Amount * 100), // kobo
		"email":        req.Email,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
		"currency":     CurrencyNGN,
	}
	if req.Metadata != nil {
		payload["metadata"] = req.Metadata
	}

	env, status, err := g.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return InitializeResponse{}, err
	}
	if !env.Status {
		return InitializeResponse{}, &GatewayError{Op: "initialize", Status: status, Msg: env.Message}
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return InitializeResponse{}, &GatewayError{Op: "initialize", Status: status, Msg: "malformed response"}
	}
	return InitializeResponse{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

func (g *PaystackGateway) Verify(ctx context.Context, reference string) (VerifyResponse, error) {
	env, status, err := g.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return VerifyResponse{}, err
	}
	if !env.Status {
		return VerifyResponse{}, &GatewayError{Op: "verify", Status: status, Msg: env.Message}
	}

	var data struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"` // kobo
		PaidAt string `json:"paid_at"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return VerifyResponse{}, &GatewayError{Op: "verify", Status: status, Msg: "malformed response"}
	}
	return VerifyResponse{
		Status: data.Status,
		Amount: float64(data.Amount) / 100,
		PaidAt: data.PaidAt,
		Raw:    env.Data,
	}, nil
}

func (g *PaystackGateway) do(ctx context.Context, method, path string, payload any) (paystackEnvelope, int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return paystackEnvelope{}, 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return paystackEnvelope{}, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return paystackEnvelope{}, 0, &GatewayError{Op: method + " " + path, Msg: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return paystackEnvelope{}, resp.StatusCode, &GatewayError{Op: method + " " + path, Status: resp.StatusCode, Msg: "read body failed"}
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return paystackEnvelope{}, resp.StatusCode, &GatewayError{Op: method + " " + path, Status: resp.StatusCode, Msg: "malformed response"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return paystackEnvelope{}, resp.StatusCode, &GatewayError{Op: method + " " + path, Status: resp.StatusCode, Msg: env.Message}
	}
	return env, resp.StatusCode, nil
}

// VerifySignature checks the x-paystack-signature header: hex HMAC-SHA512 of
// the raw request body keyed with the secret, compared constant-time.
func (g *PaystackGateway) VerifySignature(signature string, body []byte) bool {
	mac := hmac.New(sha512.New, []byte(g.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *PaystackGateway) GenerateReference() string {
	return refgen.New("PSK")
}
