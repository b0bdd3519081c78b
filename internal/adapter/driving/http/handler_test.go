package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	balancerepo "github.com/tolkvo/callengine/internal/adapter/driven/balance/memory"
	wsgateway "github.com/tolkvo/callengine/internal/adapter/driven/gateway/ws"
	"github.com/tolkvo/callengine/internal/adapter/driven/media/sim"
	"github.com/tolkvo/callengine/internal/adapter/driven/provision/local"
	settlementrepo "github.com/tolkvo/callengine/internal/adapter/driven/settlement/memory"
	"github.com/tolkvo/callengine/internal/core/domain"
	"github.com/tolkvo/callengine/internal/core/port"
	"github.com/tolkvo/callengine/internal/core/service"
)

type testEnv struct {
	srv      *httptest.Server
	balances *balancerepo.Store
	history  *settlementrepo.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalog := service.NewPricingCatalog([]domain.PricingRule{
		{CallType: domain.CallTypeVideo, CallMode: domain.ModeAI, PricePerMinute: decimal.NewFromInt(2), MinimumChargeMinutes: 5},
		{CallType: domain.CallTypeVoice, CallMode: domain.ModeAI, PricePerMinute: decimal.NewFromInt(1), MinimumChargeMinutes: 5},
	})
	balances := balancerepo.NewStore(decimal.NewFromInt(100))
	history := settlementrepo.NewStore()
	hub := wsgateway.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	factory := port.TransportFactory(func() port.VideoTransport {
		return sim.New(sim.WithConnectDelay(5 * time.Millisecond))
	})
	manager := service.NewCallManager(catalog, balances, local.New(""), factory, history, hub, service.SessionConfig{
		ConnectTimeout: time.Second,
		EndingTimeout:  time.Second,
	})

	srv := httptest.NewServer(NewHandler(manager, catalog, history, hub).NewRouter())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, balances: balances, history: history}
}

func (e *testEnv) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	resp, err := http.Post(e.srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestGetPricing(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/api/pricing")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rules := decodeJSON[[]pricingRuleDTO](t, resp)
	require.Len(t, rules, 2)
	assert.Equal(t, "video", rules[0].CallType)
	assert.Equal(t, "2", rules[0].PricePerMinute)
}

func TestStartCallAdmitted(t *testing.T) {
	env := newTestEnv(t)
	userID := domain.NewUserID()

	resp := env.post(t, "/api/calls", startCallRequest{
		UserID: userID.String(), CallType: "video", CallMode: "ai",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	snap := decodeJSON[snapshotDTO](t, resp)
	assert.Equal(t, userID.String(), snap.UserID)
	assert.Contains(t, []string{"connecting", "active"}, snap.Status)
	assert.NotEmpty(t, snap.ID)
}

func TestStartCallDenied(t *testing.T) {
	env := newTestEnv(t)
	userID := domain.NewUserID()
	env.balances.SetBalance(userID, decimal.NewFromInt(9))

	resp := env.post(t, "/api/calls", startCallRequest{
		UserID: userID.String(), CallType: "video", CallMode: "ai",
	})
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	check := decodeJSON[balanceCheckDTO](t, resp)
	assert.False(t, check.Admitted)
	assert.Equal(t, "10", check.RequiredReserve)
	assert.Equal(t, "1", check.Shortfall)
}

func TestStartCallNoRule(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/calls", startCallRequest{
		UserID: domain.NewUserID().String(), CallType: "video", CallMode: "sign_language",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartCallInvalidBody(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.srv.URL+"/api/calls", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCallLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	userID := domain.NewUserID()

	resp := env.post(t, "/api/calls", startCallRequest{
		UserID: userID.String(), CallType: "video", CallMode: "ai",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decodeJSON[snapshotDTO](t, resp)

	// second start while live conflicts
	resp = env.post(t, "/api/calls", startCallRequest{
		UserID: userID.String(), CallType: "voice", CallMode: "ai",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp := env.get(t, "/api/calls/"+snap.ID)
		got := decodeJSON[snapshotDTO](t, resp)
		return got.Status == "active"
	}, 2*time.Second, 10*time.Millisecond)

	resp = env.post(t, "/api/calls/"+snap.ID+"/audio", toggleRequest{Enabled: false})
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = env.post(t, "/api/calls/"+snap.ID+"/end", struct{}{})
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp := env.get(t, "/api/history")
		records := decodeJSON[[]settlementDTO](t, resp)
		return len(records) == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp = env.get(t, "/api/history")
	records := decodeJSON[[]settlementDTO](t, resp)
	assert.Equal(t, snap.ID, records[0].SessionID)
	assert.Equal(t, 5, records[0].BilledMinutes)
	assert.Equal(t, "10", records[0].Cost)
}

func TestUnknownSessionIs404(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/api/calls/"+domain.NewSessionID().String())
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSnapshotStreamOverWebsocket(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// give the hub a beat to register the client before snapshots flow
	time.Sleep(20 * time.Millisecond)

	resp := env.post(t, "/api/calls", startCallRequest{
		UserID: domain.NewUserID().String(), CallType: "video", CallMode: "ai",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap snapshotDTO
	require.NoError(t, conn.ReadJSON(&snap))
	assert.NotEmpty(t, snap.ID)
	assert.Contains(t, []string{"connecting", "active"}, snap.Status)
}
