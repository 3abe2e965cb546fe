package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/apierror"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/dto"
)

func TestGetOpenShift(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stations/ST1/shifts/open", r.URL.Path)
		_ = json.NewEncoder(w).Encode(dto.OpenShiftResponse{
			ShiftID:   "S1",
			StationID: "ST1",
			PumpReadings: []dto.OpenPumpReading{
				{PumpID: "P1", ProductID: "diesel", UnitPrice: decimal.RequireFromString("150")},
			},
		})
	}))
	defer srv.Close()

	c := NewShiftAPIClient(srv.URL, nil)
	open, err := c.GetOpenShift(context.Background(), "ST1")
	require.NoError(t, err)
	assert.Equal(t, "S1", open.ShiftID)
	require.Len(t, open.PumpReadings, 1)
	assert.True(t, open.PumpReadings[0].UnitPrice.Equal(decimal.RequireFromString("150")))
}

func TestGetIslandPumpMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stations/ST1/topology/islands", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string][]string{"I1": {"P1", "P2"}})
	}))
	defer srv.Close()

	c := NewShiftAPIClient(srv.URL, nil)
	topo, err := c.GetIslandPumpMapping(context.Background(), "ST1")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, topo["I1"])
}

func TestCloseShiftSuccess(t *testing.T) {
	closedAt := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/shifts/S1/close", r.URL.Path)

		var req dto.CloseShiftRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ST1", req.StationID)

		_ = json.NewEncoder(w).Encode(dto.CloseShiftResponse{ShiftID: "S1", ClosedAt: closedAt})
	}))
	defer srv.Close()

	c := NewShiftAPIClient(srv.URL, nil)
	resp, err := c.CloseShift(context.Background(), dto.CloseShiftRequest{ShiftID: "S1", StationID: "ST1"})
	require.NoError(t, err)
	assert.Equal(t, "S1", resp.ShiftID)
	assert.True(t, resp.ClosedAt.Equal(closedAt))
}

func TestCloseShiftRejectionKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"shift already closed by another terminal"}`))
	}))
	defer srv.Close()

	c := NewShiftAPIClient(srv.URL, nil)
	_, err := c.CloseShift(context.Background(), dto.CloseShiftRequest{ShiftID: "S1"})

	var serr *apierror.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusConflict, serr.StatusCode)
	assert.Contains(t, serr.Detail, "another terminal")
}

func TestCloseShiftFastFailsWhenBreakerOpen(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Hour})
	c := NewShiftAPIClient(srv.URL, cb)
	ctx := context.Background()

	_, err := c.CloseShift(ctx, dto.CloseShiftRequest{ShiftID: "S1"})
	require.Error(t, err)
	_, err = c.CloseShift(ctx, dto.CloseShiftRequest{ShiftID: "S1"})
	require.Error(t, err)

	_, err = c.CloseShift(ctx, dto.CloseShiftRequest{ShiftID: "S1"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, calls, "third attempt never reached the server")
}
