package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	"github.com/kodbank/kodbank/internal/server/auth"
	"github.com/kodbank/kodbank/internal/server/metrics"
	"github.com/kodbank/kodbank/internal/server/repositories/repomanager"
	"github.com/kodbank/kodbank/internal/server/services"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newLiveServer(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	svc := services.NewAuthService(nil, repomanager.NewInMemoryRepositoryManager(), services.Options{
		Tokens:         auth.TokenConfig{SecretKey: []byte("e2e-secret"), Validity: time.Hour},
		DefaultBalance: decimal.RequireFromString("100000.00"),
		Hasher:         auth.NewBcryptHasher(bcrypt.MinCost),
		Logger:         testLogger(t),
	})
	srv := httptest.NewServer(NewRouter(RouterConfig{Service: svc, Logger: testLogger(t), Metrics: m}))
	t.Cleanup(srv.Close)
	return srv, m
}

func TestEndToEnd_AliceWithCookies(t *testing.T) {
	srv, m := newLiveServer(t)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	post := func(path, body string) *http.Response {
		resp, err := client.Post(srv.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}
	get := func(path string) *http.Response {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post("/api/register", `{"username":"alice","email":"a@x.io","password":"s3cret"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post("/api/register", `{"username":"alice","email":"other@x.io","password":"s3cret"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = get("/api/getBalance")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post("/api/login", `{"email":"a@x.io","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post("/api/login", `{"email":"a@x.io","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.Equal(t, "alice", login.Username)
	require.NotEmpty(t, login.Token)

	resp = get("/api/getBalance")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal BalanceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bal))
	assert.Equal(t, "100000.00", bal.Balance)

	resp = post("/api/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get("/api/getBalance")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "cookie was cleared")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/getBalance", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "a revoked token still validates until it expires")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("register", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("login", "401")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("get_balance", "200")))
}

func TestEndToEnd_MetricsEndpoint(t *testing.T) {
	srv, _ := newLiveServer(t)

	resp, err := http.Post(srv.URL+"/api/logout", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
