package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-scout/internal/circuitbreaker"
	apperrors "github.com/solana-scout/internal/errors"
	"github.com/solana-scout/internal/logging"
	"github.com/solana-scout/internal/ratelimit"
	"github.com/solana-scout/internal/types"
)

const (
	walletA = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	walletB = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

type mockReportService struct {
	buildFunc func(ctx context.Context, address string) (*types.WalletReport, error)
}

func (m *mockReportService) BuildReport(ctx context.Context, address string) (*types.WalletReport, error) {
	if m.buildFunc != nil {
		return m.buildFunc(ctx, address)
	}
	return &types.WalletReport{
		Version: types.ReportVersion,
		Address: address,
		Balance: types.Balance{Lamports: 2_500_000_000, SOL: 2.5},
		Risk:    types.RiskAssessment{Score: 40, Level: types.RiskModerate, Factors: []types.RiskFactor{}},
		Classification: types.Classification{
			Type: "standard",
			Tags: []string{"standard", "funded"},
		},
	}, nil
}

type mockComparisonService struct {
	compareFunc func(ctx context.Context, a, b string) (*types.ComparisonReport, error)
}

func (m *mockComparisonService) Compare(ctx context.Context, a, b string) (*types.ComparisonReport, error) {
	if m.compareFunc != nil {
		return m.compareFunc(ctx, a, b)
	}
	return &types.ComparisonReport{
		Version: types.ReportVersion,
		Type:    types.ReportTypeComparison,
		Wallets: types.ComparedWallets{
			Wallet1: types.WalletDigest{Address: a},
			Wallet2: types.WalletDigest{Address: b},
		},
		Similarity: types.Similarity{Score: 57, Relationship: "moderate"},
	}, nil
}

type stubSource struct{}

func (stubSource) GetBalance(ctx context.Context, address string) (uint64, error) {
	return 1, nil
}

func (stubSource) GetTokenAccounts(ctx context.Context, owner string) ([]types.TokenAccount, error) {
	return nil, nil
}

func (stubSource) GetSignatures(ctx context.Context, address string, limit int) ([]types.SignatureRecord, error) {
	return nil, nil
}

type failingBudget struct{}

func (failingBudget) Usage(ctx context.Context) (*ratelimit.Usage, error) {
	return nil, errors.New("redis down")
}

func testConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "localhost",
		Port:           "0",
		RequestTimeout: 5 * time.Second,
	}
}

func newTestServer(reports ReportService, comparisons ComparisonService, opts ...ServerOption) *Server {
	if reports == nil {
		reports = &mockReportService{}
	}
	if comparisons == nil {
		comparisons = &mockComparisonService{}
	}
	opts = append([]ServerOption{WithLogger(logging.Nop())}, opts...)
	return NewServer(testConfig(), reports, comparisons, opts...)
}

func doGet(t *testing.T, h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(nil, nil)

	w := doGet(t, srv.Handler(), "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, serviceName, resp["service"])
	assert.Equal(t, types.ReportVersion, resp["version"])
	assert.NotContains(t, resp, "rpcBreaker")
	assert.NotContains(t, resp, "rpcBudget")
}

func TestHealthReportsBreaker(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("rpc")
	cfg.MaxFailures = 1
	cfg.Logger = logging.Nop()
	cb := circuitbreaker.NewCircuitBreaker(cfg)
	srv := newTestServer(nil, nil, WithBreaker(cb))

	w := doGet(t, srv.Handler(), "/health", nil)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp["status"])
	breaker, ok := resp["rpcBreaker"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "closed", breaker["state"])

	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	require.Error(t, err)
	require.Equal(t, circuitbreaker.StateOpen, cb.GetState())

	w = doGet(t, srv.Handler(), "/health", nil)
	resp = nil
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, "open", resp["rpcBreaker"].(map[string]interface{})["state"])
}

func TestHealthReportsBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracker, err := ratelimit.NewBudgetTracker(&ratelimit.BudgetTrackerConfig{
		Redis:      client,
		Budget:     100,
		WindowSize: time.Minute,
	})
	require.NoError(t, err)
	source, err := ratelimit.NewRateLimitedSource(&ratelimit.RateLimitedSourceConfig{
		Source:  stubSource{},
		Tracker: tracker,
		Logger:  logging.Nop(),
	})
	require.NoError(t, err)

	_, err = source.GetBalance(context.Background(), walletA)
	require.NoError(t, err)
	_, err = source.GetSignatures(context.Background(), walletA, 100)
	require.NoError(t, err)

	srv := newTestServer(nil, nil, WithBudget(source))
	w := doGet(t, srv.Handler(), "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RPCBudget ratelimit.Usage `json:"rpcBudget"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 100, resp.RPCBudget.Budget)
	assert.Equal(t, ratelimit.CostGetBalance+ratelimit.CostGetSignaturesForAddress, resp.RPCBudget.Used)
	assert.Equal(t, ratelimit.CostGetBalance, resp.RPCBudget.ByMethod[ratelimit.MethodGetBalance])
	assert.Equal(t, 0, resp.RPCBudget.ByMethod[ratelimit.MethodGetTokenAccountsByOwner])
	assert.Equal(t, "1m0s", resp.RPCBudget.WindowSize)
}

func TestHealthBudgetUnavailable(t *testing.T) {
	srv := newTestServer(nil, nil, WithBudget(failingBudget{}))

	w := doGet(t, srv.Handler(), "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, map[string]interface{}{"error": "unavailable"}, resp["rpcBudget"])
}

func TestWalletReport(t *testing.T) {
	var gotAddress string
	var hasDeadline bool
	reports := &mockReportService{
		buildFunc: func(ctx context.Context, address string) (*types.WalletReport, error) {
			gotAddress = address
			_, hasDeadline = ctx.Deadline()
			return (&mockReportService{}).BuildReport(ctx, address)
		},
	}
	srv := newTestServer(reports, nil)

	w := doGet(t, srv.Handler(), "/api/wallets/"+walletA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, walletA, gotAddress)
	assert.True(t, hasDeadline)

	var report types.WalletReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, walletA, report.Address)
	assert.Equal(t, 2.5, report.Balance.SOL)
	assert.Equal(t, types.RiskModerate, report.Risk.Level)
}

func TestWalletReportErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "invalid address",
			err:        apperrors.NewInvalidAddressError("nope"),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidAddress,
			wantMsg:    "Invalid Solana address: nope",
		},
		{
			name:       "not a wallet",
			err:        apperrors.NewNotAWalletError(walletA),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperrors.CodeNotAWallet,
			wantMsg:    "Address is not a wallet (off-curve / program address): " + walletA,
		},
		{
			name:       "rpc failure",
			err:        apperrors.NewRPCError("getBalance", errors.New("connection refused")),
			wantStatus: http.StatusBadGateway,
			wantCode:   apperrors.CodeRPCError,
			wantMsg:    "rpc getBalance failed: connection refused",
		},
		{
			name:       "endpoint unavailable",
			err:        apperrors.NewRPCUnavailableError("https://rpc.example", circuitbreaker.ErrCircuitOpen),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.CodeRPCUnavailable,
			wantMsg:    "rpc endpoint unavailable: https://rpc.example: circuit breaker is open",
		},
		{
			name:       "budget exhausted",
			err:        apperrors.NewRPCBudgetExhaustedError("getSignaturesForAddress", 1500),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   apperrors.CodeRPCBudgetExhausted,
			wantMsg:    "rpc budget exhausted for getSignaturesForAddress",
		},
		{
			name:       "unexpected error is hidden",
			err:        errors.New("nil pointer somewhere"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeInternal,
			wantMsg:    "An internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := &mockReportService{
				buildFunc: func(ctx context.Context, address string) (*types.WalletReport, error) {
					return nil, tt.err
				},
			}
			srv := newTestServer(reports, nil)

			w := doGet(t, srv.Handler(), "/api/wallets/"+walletA, nil)
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
		})
	}
}

func TestWalletReportBudgetDetails(t *testing.T) {
	reports := &mockReportService{
		buildFunc: func(ctx context.Context, address string) (*types.WalletReport, error) {
			return nil, apperrors.NewRPCBudgetExhaustedError("getBalance", 2500)
		},
	}
	srv := newTestServer(reports, nil)

	w := doGet(t, srv.Handler(), "/api/wallets/"+walletA, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	resp := decodeError(t, w)
	assert.Equal(t, "getBalance", resp.Error.Details["method"])
	assert.Equal(t, float64(2500), resp.Error.Details["retryAfterMs"])
}

func TestCompare(t *testing.T) {
	srv := newTestServer(nil, nil)

	w := doGet(t, srv.Handler(), "/api/compare/"+walletA+"/"+walletB, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report types.ComparisonReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, types.ReportTypeComparison, report.Type)
	assert.Equal(t, walletA, report.Wallets.Wallet1.Address)
	assert.Equal(t, walletB, report.Wallets.Wallet2.Address)
	assert.Equal(t, 57, report.Similarity.Score)
}

func TestCompareFailure(t *testing.T) {
	comparisons := &mockComparisonService{
		compareFunc: func(ctx context.Context, a, b string) (*types.ComparisonReport, error) {
			return nil, apperrors.NewInvalidAddressError(b)
		},
	}
	srv := newTestServer(nil, comparisons)

	w := doGet(t, srv.Handler(), "/api/compare/"+walletA+"/bogus", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeInvalidAddress, decodeError(t, w).Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(nil, nil)

	w := doGet(t, srv.Handler(), "/api/portfolios/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/wallets/"+walletA, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), ClientIDHeader)
	assert.Empty(t, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 1
	cfg.Burst = 1
	srv := NewServer(cfg, &mockReportService{}, &mockComparisonService{}, WithLogger(logging.Nop()))
	h := srv.Handler()

	first := doGet(t, h, "/api/wallets/"+walletA, map[string]string{ClientIDHeader: "agent-1"})
	require.Equal(t, http.StatusOK, first.Code)

	second := doGet(t, h, "/api/wallets/"+walletA, map[string]string{ClientIDHeader: "agent-1"})
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	resp := decodeError(t, second)
	assert.Equal(t, apperrors.CodeRateLimitExceeded, resp.Error.Code)
	assert.Equal(t, float64(1), resp.Error.Details["retryAfter"])

	// Other clients keep their own allowance
	other := doGet(t, h, "/api/wallets/"+walletA, map[string]string{ClientIDHeader: "agent-2"})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.7:52311"
	assert.Equal(t, "10.0.0.7", clientID(req))

	req.Header.Set(ClientIDHeader, "agent-9")
	assert.Equal(t, "agent-9", clientID(req))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientID(req))
}

func TestCompression(t *testing.T) {
	srv := newTestServer(nil, nil)

	w := doGet(t, srv.Handler(), "/api/wallets/"+walletA, map[string]string{"Accept-Encoding": "gzip"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)

	var report types.WalletReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, walletA, report.Address)
}

func TestNoCompressionWithoutAcceptEncoding(t *testing.T) {
	srv := newTestServer(nil, nil)

	w := doGet(t, srv.Handler(), "/health", nil)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.True(t, json.Valid(w.Body.Bytes()))
}

func TestPanicRecovery(t *testing.T) {
	reports := &mockReportService{
		buildFunc: func(ctx context.Context, address string) (*types.WalletReport, error) {
			panic("boom")
		},
	}
	srv := newTestServer(reports, nil)

	w := doGet(t, srv.Handler(), "/api/wallets/"+walletA, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "boom")
}

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerWithOutput(logging.LevelInfo, logging.FormatJSON, &buf)
	srv := NewServer(testConfig(), &mockReportService{}, &mockComparisonService{}, WithLogger(logger))

	w := doGet(t, srv.Handler(), "/health", map[string]string{RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"requestId":"req-42"`)
	assert.Contains(t, buf.String(), `"path":"/health"`)
	assert.Contains(t, buf.String(), `"status":200`)

	w = doGet(t, srv.Handler(), "/health", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, 4, strings.Count(generated, "-"))
}

func TestRequestLoggerReachesHandlers(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerWithOutput(logging.LevelInfo, logging.FormatJSON, &buf)
	reports := &mockReportService{
		buildFunc: func(ctx context.Context, address string) (*types.WalletReport, error) {
			return nil, apperrors.NewRPCError("getBalance", errors.New("timeout"))
		},
	}
	srv := NewServer(testConfig(), reports, &mockComparisonService{}, WithLogger(logger))

	doGet(t, srv.Handler(), "/api/wallets/"+walletA, map[string]string{RequestIDHeader: "req-7"})

	var warned bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["message"] == "Wallet report failed" {
			warned = true
			assert.Equal(t, "req-7", entry["requestId"])
			assert.Equal(t, walletA, entry["address"])
		}
	}
	assert.True(t, warned)
}

func TestServiceErrorLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
	}{
		{name: "invalid address", err: apperrors.NewInvalidAddressError("nope"), wantLevel: "info"},
		{name: "budget exhausted", err: apperrors.NewRPCBudgetExhaustedError("getBalance", 100), wantLevel: "warn"},
		{name: "rpc failure", err: apperrors.NewRPCError("getBalance", errors.New("502")), wantLevel: "warn"},
		{name: "endpoint unavailable", err: apperrors.NewRPCUnavailableError("https://rpc.example", circuitbreaker.ErrCircuitOpen), wantLevel: "warn"},
		{name: "internal fault", err: errors.New("nil pointer somewhere"), wantLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewLoggerWithOutput(logging.LevelInfo, logging.FormatJSON, &buf)
			reports := &mockReportService{
				buildFunc: func(ctx context.Context, address string) (*types.WalletReport, error) {
					return nil, tt.err
				},
			}
			srv := NewServer(testConfig(), reports, &mockComparisonService{}, WithLogger(logger))

			w := doGet(t, srv.Handler(), "/api/wallets/"+walletA, nil)
			assert.Equal(t, apperrors.GetHTTPStatusCode(tt.err), w.Code)

			var level string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				var entry map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(line), &entry))
				if entry["message"] == "Wallet report failed" {
					level, _ = entry["level"].(string)
				}
			}
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}
