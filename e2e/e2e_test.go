//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kredexa/lending-engine/pkg/auth"
)

var (
	baseURL    string
	adminToken string
)

func TestMain(m *testing.M) {
	baseURL = os.Getenv("ENGINE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "test-e2e-secret"
	}
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     secret,
		Issuer:     "kredexa-platform",
		Expiration: time.Hour,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "jwt setup:", err)
		os.Exit(1)
	}
	adminToken, err = jwtSvc.GenerateToken(uuid.New(), []string{auth.RoleAdmin})
	if err != nil {
		fmt.Fprintln(os.Stderr, "jwt token:", err)
		os.Exit(1)
	}

	// Wait for the engine to be ready.
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil && resp.StatusCode == 200 {
			resp.Body.Close()
			break
		}
		time.Sleep(time.Second)
	}

	os.Exit(m.Run())
}

func doJSON(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	resp, err := http.Get(baseURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoanLifecycle(t *testing.T) {
	resp, loan := doJSON(t, http.MethodPost, "/v1/loans", map[string]any{
		"borrower_id":     uuid.NewString(),
		"product_code":    "SME-STD",
		"principal":       "12000",
		"currency":        "CNY",
		"annual_rate_bps": 1800,
		"term_months":     12,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	loanID, _ := loan["id"].(string)
	require.NotEmpty(t, loanID)
	assert.Equal(t, "ACTIVE", loan["status"])
	assert.Len(t, loan["schedule"], 12)

	resp, fetched := doJSON(t, http.MethodGet, "/v1/loans/"+loanID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, loanID, fetched["id"])

	resp, payment := doJSON(t, http.MethodPost, "/v1/loans/"+loanID+"/payments", map[string]any{
		"amount":       "500",
		"payment_date": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ACTIVE", payment["loan_status"])
}

func TestProcessingRunAndStatus(t *testing.T) {
	resp, result := doJSON(t, http.MethodPost, "/v1/late-fees/process?force=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, result["is_manual_run"])

	resp, status := doJSON(t, http.MethodGet, "/v1/late-fees/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, status["last_run"])

	resp, logs := doJSON(t, http.MethodGet, "/v1/late-fees/logs?limit=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, logs["logs"])
}

func TestAuthIsEnforced(t *testing.T) {
	resp, err := http.Get(baseURL + "/v1/late-fees/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
