package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/chris/money-movement/pkg/admin"
	adminmocks "github.com/chris/money-movement/pkg/admin/mocks"
	"github.com/chris/money-movement/pkg/api"
	"github.com/chris/money-movement/pkg/bus"
	"github.com/chris/money-movement/pkg/gate"
	"github.com/chris/money-movement/pkg/lifecycle"
	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/scheduler"
	"github.com/chris/money-movement/pkg/storage"
	"github.com/chris/money-movement/pkg/swap"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSession = "session-1"
	testEmail   = "alex@example.com"
	goodPIN     = "1234"
)

// fakeRemote stands in for the remote banking service.
type fakeRemote struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	transfers int
	swaps     int
	rates     int
	failNext  bool
}

func (f *fakeRemote) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/transfer-pin/verify", func(w http.ResponseWriter, r *http.Request) {
		var body api.PINVerifyRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(api.PINVerifyResponse{OK: body.Code == goodPIN})
	})
	r.Post("/transfer/internal", func(w http.ResponseWriter, r *http.Request) {
		var body api.InternalTransferBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.transfers++
		if f.failNext {
			f.failNext = false
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "recipient account is closed"})
			return
		}
		amount, _ := decimal.NewFromString(body.Amount.String())
		f.balance = f.balance.Sub(amount)
		_ = json.NewEncoder(w).Encode(api.TransferResponse{Status: "completed", ReferenceNumber: "IT0001234"})
	})
	r.Get("/account/balance", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(api.BalanceResponse{Balance: f.balance, Currency: models.CurrencyUSD})
	})
	r.Get("/transactions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.TransactionResponse{})
	})
	r.Get("/bitcoin/exchange-rate", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.rates++
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(api.ExchangeRateResponse{ExchangeRate: decimal.NewFromInt(65000)})
	})
	r.Post("/bitcoin/swap", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.swaps++
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(api.SwapResponse{ID: "SW-1", Status: "pending"})
	})
	return r
}

func (f *fakeRemote) rateFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rates
}

func (f *fakeRemote) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transfers, f.swaps
}

type harness struct {
	t       *testing.T
	url     string
	remote  *fakeRemote
	store   *storage.MemoryStore
	bus     *bus.Bus
	handler *ApiHandler
}

func newHarness(t *testing.T, adminRemote admin.Remote, opts ...func(*Deps)) *harness {
	t.Helper()
	remote := &fakeRemote{balance: decimal.RequireFromString("1000.00")}
	remoteSrv := httptest.NewServer(remote.router())
	t.Cleanup(remoteSrv.Close)

	client := api.NewClient(remoteSrv.URL, 5*time.Second, nil)
	b := bus.New(nil)
	store := storage.NewMemoryStore()
	sched := scheduler.NewTimerScheduler(b, nil)
	t.Cleanup(sched.Stop)

	var panelRemote admin.Remote = client
	if adminRemote != nil {
		panelRemote = adminRemote
	}

	deps := Deps{
		Gates:        gate.NewRegistry(client, nil, nil),
		Transfers:    lifecycle.NewClient(client, b, store, nil),
		Swaps:        swap.NewEngine(client, sched, b, store, time.Hour, nil),
		Receipts:     store,
		Panel:        admin.NewPanel(panelRemote, b, nil),
		Remote:       client,
		Subscriber:   b,
		PollInterval: time.Hour,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h := NewApiHandler(deps)
	t.Cleanup(h.Close)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &harness{t: t, url: srv.URL, remote: remote, store: store, bus: b, handler: h}
}

func (h *harness) do(method, path string, body any) *http.Response {
	h.t.Helper()
	return h.doAs(method, path, body, testSession, testEmail)
}

func (h *harness) doAs(method, path string, body any, session, email string) *http.Response {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.url+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set(HeaderSession, session)
	req.Header.Set(HeaderUserEmail, email)
	req.Header.Set("Authorization", "Bearer token-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

var internalForm = transferForm{
	Channel: string(models.ChannelInternal),
	Fields: map[string]string{
		"recipient_email": "bo@example.com",
		"amount":          "250",
		"description":     "Dinner",
	},
}

func TestQuoteTransfer(t *testing.T) {
	t.Run("International Wire Fee", func(t *testing.T) {
		h := newHarness(t, nil)

		resp := h.do(http.MethodPost, "/transfers/quote", transferForm{
			Channel: string(models.ChannelWireInternational),
			Fields:  map[string]string{"amount": "1000"},
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		quote := decodeBody[models.FeeQuote](t, resp)
		assert.True(t, decimal.NewFromInt(50).Equal(quote.Fee), quote.Fee.String())
		assert.True(t, decimal.NewFromInt(1050).Equal(quote.TotalAmount))
	})

	t.Run("Over Limit", func(t *testing.T) {
		h := newHarness(t, nil)

		resp := h.do(http.MethodPost, "/transfers/quote", transferForm{
			Channel: string(models.ChannelInternal),
			Fields:  map[string]string{"amount": "10000.01"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("Field From Another Channel", func(t *testing.T) {
		h := newHarness(t, nil)

		resp := h.do(http.MethodPost, "/transfers/quote", transferForm{
			Channel: string(models.ChannelInternal),
			Fields:  map[string]string{"swift_code": "DEUTDEFF"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestTransferFlow(t *testing.T) {
	t.Run("Confirm Submits And Stores Receipt", func(t *testing.T) {
		// Arrange
		h := newHarness(t, nil)
		resp := h.do(http.MethodPost, "/transfers", internalForm)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		review := decodeBody[models.Review](t, resp)
		assert.Equal(t, "bo@example.com", review.Recipient)

		// Act
		resp = h.do(http.MethodPost, "/confirmations", confirmRequest{PIN: goodPIN})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody[receiptResponse](t, resp)
		assert.Equal(t, models.StatusCompleted, got.Receipt.Status)
		assert.Equal(t, "IT0001234", got.Receipt.ReferenceID)
		assert.Empty(t, got.Message)

		resp = h.do(http.MethodGet, "/receipts", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		receipts := decodeBody[[]models.Receipt](t, resp)
		require.Len(t, receipts, 1)
		assert.Equal(t, "IT0001234", receipts[0].ReferenceID)

		resp = h.do(http.MethodGet, "/receipts/IT0001234", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = h.doAs(http.MethodGet, "/receipts/IT0001234", nil, "session-2", "cy@example.com")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Validation Errors Name Fields", func(t *testing.T) {
		h := newHarness(t, nil)

		resp := h.do(http.MethodPost, "/transfers", transferForm{
			Channel: string(models.ChannelACH),
			Fields:  map[string]string{"amount": "12.345", "routing_number": "12"},
		})

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		body := decodeBody[errorResponse](t, resp)
		fields := map[string]bool{}
		for _, e := range body.Errors {
			fields[e.Field] = true
		}
		assert.True(t, fields["amount"])
		assert.True(t, fields["routing_number"])
		assert.True(t, fields["description"])
	})

	t.Run("Second Open Gate Conflicts", func(t *testing.T) {
		h := newHarness(t, nil)
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/transfers", internalForm).StatusCode)

		resp := h.do(http.MethodPost, "/transfers", internalForm)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("Wrong PIN Keeps Gate Open", func(t *testing.T) {
		h := newHarness(t, nil)
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/transfers", internalForm).StatusCode)

		resp := h.do(http.MethodPost, "/confirmations", confirmRequest{PIN: "9999"})

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, models.MsgPINFailed, decodeBody[errorResponse](t, resp).Message)
		transfers, _ := h.remote.counts()
		assert.Equal(t, 0, transfers)
		assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/confirmations", nil).StatusCode)

		resp = h.do(http.MethodPost, "/confirmations", confirmRequest{PIN: goodPIN})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Remote Failure Returns Failed Receipt", func(t *testing.T) {
		h := newHarness(t, nil)
		h.remote.mu.Lock()
		h.remote.failNext = true
		h.remote.mu.Unlock()
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/transfers", internalForm).StatusCode)

		resp := h.do(http.MethodPost, "/confirmations", confirmRequest{PIN: goodPIN})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody[receiptResponse](t, resp)
		assert.Equal(t, models.StatusFailed, got.Receipt.Status)
		assert.Equal(t, models.MsgTransferFailed, got.Message)
		assert.NotContains(t, got.Message, "closed")
	})

	t.Run("Cancel Makes No Call", func(t *testing.T) {
		h := newHarness(t, nil)
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/transfers", internalForm).StatusCode)

		resp := h.do(http.MethodDelete, "/confirmations", nil)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/confirmations", confirmRequest{PIN: goodPIN}).StatusCode)
		transfers, _ := h.remote.counts()
		assert.Equal(t, 0, transfers)
	})

	t.Run("Missing Session", func(t *testing.T) {
		h := newHarness(t, nil)
		req, err := http.NewRequest(http.MethodDelete, h.url+"/confirmations", nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetBalance(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodGet, "/balance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	before := decodeBody[models.Balance](t, resp)
	assert.True(t, decimal.RequireFromString("1000").Equal(before.Amount), before.Amount.String())

	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/transfers", internalForm).StatusCode)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/confirmations", confirmRequest{PIN: goodPIN}).StatusCode)

	// The transfer cue re-fetches the balance in the background.
	assert.Eventually(t, func() bool {
		resp := h.do(http.MethodGet, "/balance", nil)
		var got models.Balance
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			return false
		}
		return got.Amount.Equal(decimal.RequireFromString("750"))
	}, 2*time.Second, 10*time.Millisecond)

	resp = h.do(http.MethodGet, "/transactions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/session", nil).StatusCode)
}

func TestSwapFlow(t *testing.T) {
	t.Run("Compose Confirm Pending", func(t *testing.T) {
		// Arrange
		h := newHarness(t, nil)
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/swap/composer", nil).StatusCode)
		require.Eventually(t, func() bool {
			return h.do(http.MethodGet, "/swap/composer", nil).StatusCode == http.StatusOK
		}, 2*time.Second, 10*time.Millisecond)

		// Act
		resp := h.do(http.MethodPost, "/swaps", swapForm{SwapType: "usd_to_btc", AmountFrom: "1000"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		review := decodeBody[models.Review](t, resp)
		resp = h.do(http.MethodPost, "/confirmations", confirmRequest{PIN: goodPIN})

		// Assert
		assert.Equal(t, "usd_to_btc", review.Channel)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody[receiptResponse](t, resp)
		assert.Equal(t, models.ReceiptSwap, got.Receipt.Type)
		assert.Equal(t, models.StatusPending, got.Receipt.Status)
		_, swaps := h.remote.counts()
		assert.Equal(t, 1, swaps)
	})

	t.Run("Composer Not Open", func(t *testing.T) {
		h := newHarness(t, nil)

		assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/swap/composer", nil).StatusCode)
		assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/swaps", swapForm{SwapType: "usd_to_btc", AmountFrom: "1"}).StatusCode)
		assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/swap/composer", nil).StatusCode)
	})

	t.Run("Close Composer", func(t *testing.T) {
		h := newHarness(t, nil)
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/swap/composer", nil).StatusCode)
		assert.Equal(t, http.StatusNoContent, h.do(http.MethodPost, "/swap/composer", nil).StatusCode)

		assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/swap/composer", nil).StatusCode)
		assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/swap/composer", nil).StatusCode)
	})
}

func TestAdminRoutes(t *testing.T) {
	id := uuid.MustParse("6f1c2c8e-3a7b-4a7c-9d55-1f0e8b0a5c01")
	pending := []api.AdminTransfer{{
		ID: id, SenderEmail: testEmail, TransferType: "ach", RecipientName: "Bo",
		Amount: decimal.NewFromInt(500), Fee: decimal.RequireFromString("0.50"),
		Status: "pending", CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}}
	listed := func(remote *adminmocks.Remote) {
		remote.On("ListAdminTransfers", mock.Anything, "pending", "processing").Return(pending, nil)
	}

	t.Run("List", func(t *testing.T) {
		remote := adminmocks.NewRemote(t)
		listed(remote)
		h := newHarness(t, remote)

		resp := h.do(http.MethodGet, "/admin/transfers", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		items := decodeBody[[]admin.Item](t, resp)
		require.Len(t, items, 1)
		assert.Equal(t, id.String(), items[0].ID)
	})

	t.Run("Reject Without Reason", func(t *testing.T) {
		remote := adminmocks.NewRemote(t)
		listed(remote)
		h := newHarness(t, remote)
		require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/admin/transfers", nil).StatusCode)

		resp := h.do(http.MethodPost, "/admin/transfers/"+id.String()+"/reject", rejectRequest{Reason: " "})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		remote.AssertNotCalled(t, "RejectTransfer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Approve Refused Upstream", func(t *testing.T) {
		remote := adminmocks.NewRemote(t)
		listed(remote)
		remote.On("ApproveTransfer", mock.Anything, id.String(), "ok").
			Return(nil, &api.Error{StatusCode: http.StatusConflict, Message: "already settled"}).Once()
		h := newHarness(t, remote)
		require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/admin/transfers", nil).StatusCode)

		resp := h.do(http.MethodPost, "/admin/transfers/"+id.String()+"/approve", approveRequest{Notes: "ok"})

		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, models.MsgAdjudicationFailed, decodeBody[errorResponse](t, resp).Message)
	})

	t.Run("Reject Succeeds", func(t *testing.T) {
		remote := adminmocks.NewRemote(t)
		listed(remote)
		remote.On("RejectTransfer", mock.Anything, id.String(), "Suspicious").
			Return(&api.MessageResponse{Message: "rejected"}, nil).Once()
		h := newHarness(t, remote)
		require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/admin/transfers", nil).StatusCode)

		resp := h.do(http.MethodPost, "/admin/transfers/"+id.String()+"/reject", rejectRequest{Reason: "Suspicious"})
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = h.do(http.MethodPost, "/admin/transfers/"+id.String()+"/reject", rejectRequest{Reason: "Suspicious"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("List Failure", func(t *testing.T) {
		remote := adminmocks.NewRemote(t)
		remote.On("ListAdminTransfers", mock.Anything, "pending", "processing").
			Return(nil, &api.Error{StatusCode: http.StatusServiceUnavailable, Message: "down"})
		h := newHarness(t, remote)

		resp := h.do(http.MethodGet, "/admin/transfers", nil)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestWriteError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"not found":    {storage.ErrReceiptNotFound, http.StatusNotFound},
		"in flight":    {admin.ErrInFlight, http.StatusConflict},
		"no rate":      {swap.ErrNoRate, http.StatusServiceUnavailable},
		"unknown":      {errors.New("boom"), http.StatusInternalServerError},
		"adjudication": {&models.AdjudicationError{TransferID: "T1", Action: "approve", Err: context.DeadlineExceeded}, http.StatusBadGateway},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestIdleSessionsExpire(t *testing.T) {
	t.Run("Polling Stops After Expiry", func(t *testing.T) {
		// Arrange
		clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
		h := newHarness(t, nil, func(d *Deps) {
			d.PollInterval = 20 * time.Millisecond
			d.SessionIdleTimeout = time.Minute
		})
		h.handler.mu.Lock()
		h.handler.now = clock.Now
		h.handler.mu.Unlock()

		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/swap/composer", nil).StatusCode)
		require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/balance", nil).StatusCode)
		require.Eventually(t, func() bool { return h.remote.rateFetches() >= 3 }, 2*time.Second, 10*time.Millisecond)

		// Act
		clock.Advance(30 * time.Second)
		assert.Equal(t, 0, h.handler.sweep())
		clock.Advance(2 * time.Minute)
		closed := h.handler.sweep()

		// Assert
		assert.Equal(t, 1, closed)
		time.Sleep(50 * time.Millisecond)
		settled := h.remote.rateFetches()
		time.Sleep(150 * time.Millisecond)
		assert.Equal(t, settled, h.remote.rateFetches())
		assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/swap/composer", nil).StatusCode)
	})

	t.Run("Use Keeps Session Alive", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
		h := newHarness(t, nil, func(d *Deps) { d.SessionIdleTimeout = time.Minute })
		h.handler.mu.Lock()
		h.handler.now = clock.Now
		h.handler.mu.Unlock()
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/swap/composer", nil).StatusCode)

		clock.Advance(50 * time.Second)
		require.Eventually(t, func() bool {
			return h.do(http.MethodGet, "/swap/composer", nil).StatusCode == http.StatusOK
		}, 2*time.Second, 10*time.Millisecond)
		clock.Advance(50 * time.Second)

		assert.Equal(t, 0, h.handler.sweep())
		assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/swap/composer", nil).StatusCode)
	})
}
