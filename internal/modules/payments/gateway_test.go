package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeSendsKoboAndParsesResponse(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, jsonDecode(r, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"ac_123","reference":"PSK-1"}}`))
	}))
	defer srv.Close()

	gw := NewPaystackGateway("sk_test_secret", srv.URL)
	resp, err := gw.Initialize(context.Background(), InitializeRequest{
		Amount:    4999.50,
		Email:     "ada@example.com",
		Reference: "PSK-1",
	})
	require.NoError(t, err)
	require.Equal(t, "/transaction/initialize", gotPath)
	require.Equal(t, "Bearer sk_test_secret", gotAuth)
	require.Equal(t, float64(499950), gotBody["amount"])
	require.Equal(t, "https://checkout.paystack.com/abc", resp.AuthorizationURL)
	require.Equal(t, "ac_123", resp.AccessCode)
}

func TestInitializeGatewayDecline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	}))
	defer srv.Close()

	gw := NewPaystackGateway("sk_bad", srv.URL)
	_, err := gw.Initialize(context.Background(), InitializeRequest{Amount: 100, Email: "a@b.c", Reference: "r"})
	require.Error(t, err)

	var ge *GatewayError
	require.ErrorAs(t, err, &ge)
	require.Equal(t, http.StatusBadRequest, ge.Status)
}

func TestVerifyConvertsKoboToNaira(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/PSK-9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","amount":650000,"paid_at":"2026-01-15T10:00:00Z"}}`))
	}))
	defer srv.Close()

	gw := NewPaystackGateway("sk_test", srv.URL)
	resp, err := gw.Verify(context.Background(), "PSK-9")
	require.NoError(t, err)
	require.Equal(t, "success", resp.Status)
	require.Equal(t, float64(6500), resp.Amount)
	require.Equal(t, "2026-01-15T10:00:00Z", resp.PaidAt)
}

func TestVerifySignature(t *testing.T) {
	gw := NewPaystackGateway("sk_test_secret", "https://api.paystack.co")

	body := []byte(`{"event":"charge.success","data":{"reference":"PSK-1"}}`)
	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	require.True(t, gw.VerifySignature(valid, body))
	require.False(t, gw.VerifySignature(valid, []byte(`{"event":"charge.success","data":{"reference":"PSK-2"}}`)))
	require.False(t, gw.VerifySignature("deadbeef", body))
	require.False(t, gw.VerifySignature("", body))
}

func TestGenerateReference(t *testing.T) {
	gw := NewPaystackGateway("sk", "https://api.paystack.co")

	a := gw.GenerateReference()
	b := gw.GenerateReference()
	require.True(t, strings.HasPrefix(a, "PSK-"))
	require.NotEqual(t, a, b)
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
