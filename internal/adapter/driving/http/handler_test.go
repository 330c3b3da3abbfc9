package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farepanel/farepanel/internal/application"
	"github.com/farepanel/farepanel/internal/domain/model"
	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

type fakeController struct {
	state         application.FetchState
	updateErr     error
	clearErr      error
	updatedCred   *model.Credential
	clearedCalled bool
}

func (f *fakeController) State() application.FetchState {
	return f.state
}

func (f *fakeController) UpdateCredential(_ context.Context, cred model.Credential) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedCred = &cred
	return nil
}

func (f *fakeController) ClearCredential(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clearedCalled = true
	return nil
}

type fakeRefresher struct {
	err    error
	called bool
}

func (f *fakeRefresher) RefreshNow(context.Context) error {
	f.called = true
	return f.err
}

type fakeFareClient struct {
	updateFn func(ctx context.Context, update model.AccountUpdate) (model.AccountSnapshot, error)
	pingErr  error
}

var _ driven.FareClient = (*fakeFareClient)(nil)

func (f *fakeFareClient) Authenticate(context.Context) error { return nil }
func (f *fakeFareClient) FetchAccount(context.Context) (model.AccountSnapshot, error) {
	return model.AccountSnapshot{}, nil
}
func (f *fakeFareClient) FetchHistory(context.Context) ([]model.HistoryEntry, error) {
	return nil, nil
}
func (f *fakeFareClient) UpdateAccount(ctx context.Context, update model.AccountUpdate) (model.AccountSnapshot, error) {
	if f.updateFn == nil {
		return model.AccountSnapshot{}, nil
	}
	return f.updateFn(ctx, update)
}
func (f *fakeFareClient) Ping(context.Context) error { return f.pingErr }

func populatedState() application.FetchState {
	return application.FetchState{
		Account: &model.AccountSnapshot{
			Account: model.Account{FirstName: "Ana", LastName: "Souza", Email: "ana@example.com"},
			Card:    model.Card{Number: "1807022585-1", BalanceCents: 2350, Status: "active"},
		},
		History: []model.HistoryEntry{
			{Date: "2026-08-20", Type: "recharge", BalanceChangeCents: 2000},
			{Date: "2026-08-22", Type: "fare", BalanceChangeCents: -465},
		},
	}
}

func newTestHandler(controller *fakeController, refresher *fakeRefresher, client driven.FareClient) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := NewHandler(controller, refresher, application.NewClientProvider(client), logger)
	return NewServeMux(h, logger)
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetState(t *testing.T) {
	controller := &fakeController{state: populatedState()}
	handler := newTestHandler(controller, &fakeRefresher{}, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/state", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Account)
	assert.Equal(t, "Ana", resp.Account.FirstName)
	assert.Equal(t, int64(2350), resp.Account.BalanceCents)
	assert.Len(t, resp.History, 2)
	assert.False(t, resp.IsLoading)
}

func TestGetState_EmptyView(t *testing.T) {
	controller := &fakeController{state: application.FetchState{LastError: "no credential configured"}}
	handler := newTestHandler(controller, &fakeRefresher{}, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/state", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Account)
	assert.Empty(t, resp.History)
	assert.Equal(t, "no credential configured", resp.LastError)
}

func TestGetAccount(t *testing.T) {
	controller := &fakeController{state: populatedState()}
	handler := newTestHandler(controller, &fakeRefresher{}, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/account", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1807022585-1", resp.CardNumber)
	assert.Equal(t, "active", resp.CardStatus)
}

func TestGetAccount_NoDataYet(t *testing.T) {
	handler := newTestHandler(&fakeController{}, &fakeRefresher{}, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/account", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHistory(t *testing.T) {
	controller := &fakeController{state: populatedState()}
	handler := newTestHandler(controller, &fakeRefresher{}, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/history", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []HistoryEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "2026-08-20", resp[0].Date)
	assert.Equal(t, int64(-465), resp[1].BalanceChangeCents)
}

func TestUpdateAccount(t *testing.T) {
	client := &fakeFareClient{
		updateFn: func(_ context.Context, update model.AccountUpdate) (model.AccountSnapshot, error) {
			assert.Equal(t, "new@example.com", update.Email)
			snapshot := *populatedState().Account
			snapshot.Account.Email = update.Email
			return snapshot, nil
		},
	}
	handler := newTestHandler(&fakeController{}, &fakeRefresher{}, client)

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/account", []byte(`{"email": "new@example.com"}`))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "new@example.com", resp.Email)
}

func TestUpdateAccount_BadBody(t *testing.T) {
	handler := newTestHandler(&fakeController{}, &fakeRefresher{}, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/account", []byte(`{`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAccount_NoClient(t *testing.T) {
	handler := newTestHandler(&fakeController{}, &fakeRefresher{}, nil)

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/account", []byte(`{"email": "a@b.c"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateAccount_UpstreamFailure(t *testing.T) {
	client := &fakeFareClient{
		updateFn: func(context.Context, model.AccountUpdate) (model.AccountSnapshot, error) {
			return model.AccountSnapshot{}, &driven.ServerError{Status: 500}
		},
	}
	handler := newTestHandler(&fakeController{}, &fakeRefresher{}, client)

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/account", []byte(`{"email": "a@b.c"}`))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTriggerRefresh(t *testing.T) {
	controller := &fakeController{state: populatedState()}
	refresher := &fakeRefresher{}
	handler := newTestHandler(controller, refresher, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/refresh", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, refresher.called)

	var resp StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Account)
}

func TestTriggerRefresh_CancelledWaiter(t *testing.T) {
	refresher := &fakeRefresher{err: context.Canceled}
	handler := newTestHandler(&fakeController{}, refresher, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/refresh", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPutCredentials(t *testing.T) {
	controller := &fakeController{}
	handler := newTestHandler(controller, &fakeRefresher{}, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/credentials",
		[]byte(`{"card_number": "1807022585-1", "password": "correct"}`))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, controller.updatedCred)
	assert.Equal(t, "1807022585-1", controller.updatedCred.CardNumber)
	assert.Equal(t, "correct", controller.updatedCred.Password)
}

func TestPutCredentials_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", driven.ErrAuthInputInvalid, http.StatusBadRequest},
		{"rejected by server", driven.ErrAuthenticationFailed, http.StatusUnauthorized},
		{"upstream down", &driven.TransportError{Kind: driven.TransportConnectionFailed}, http.StatusBadGateway},
		{"timed out", context.DeadlineExceeded, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := &fakeController{updateErr: tt.err}
			handler := newTestHandler(controller, &fakeRefresher{}, &fakeFareClient{})

			rec := doRequest(t, handler, http.MethodPut, "/api/v1/credentials",
				[]byte(`{"card_number": "1807022585-1", "password": "x"}`))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPutCredentials_BadBody(t *testing.T) {
	handler := newTestHandler(&fakeController{}, &fakeRefresher{}, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/credentials", []byte(`not json`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCredentials(t *testing.T) {
	controller := &fakeController{}
	handler := newTestHandler(controller, &fakeRefresher{}, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodDelete, "/api/v1/credentials", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, controller.clearedCalled)
}

func TestConnectivity(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		handler := newTestHandler(&fakeController{}, &fakeRefresher{}, &fakeFareClient{})

		rec := doRequest(t, handler, http.MethodGet, "/api/v1/connectivity", nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ConnectivityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Reachable)
		assert.Empty(t, resp.Error)
	})

	t.Run("unreachable", func(t *testing.T) {
		client := &fakeFareClient{pingErr: &driven.ServerError{Status: 503}}
		handler := newTestHandler(&fakeController{}, &fakeRefresher{}, client)

		rec := doRequest(t, handler, http.MethodGet, "/api/v1/connectivity", nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ConnectivityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Reachable)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("no client", func(t *testing.T) {
		handler := newTestHandler(&fakeController{}, &fakeRefresher{}, nil)

		rec := doRequest(t, handler, http.MethodGet, "/api/v1/connectivity", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	handler := newTestHandler(&fakeController{}, &fakeRefresher{}, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})
	wrapped := recoveryMiddleware(logger, mux)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(&fakeController{}, &fakeRefresher{}, &fakeFareClient{})

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/state", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
