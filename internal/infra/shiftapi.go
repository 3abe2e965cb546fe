package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/johnkamauwamunga/energy-erp-sub002/internal/apierror"
	"github.com/johnkamauwamunga/energy-erp-sub002/internal/dto"
)

// ShiftAPIClient talks to the external shift service: opening readings and
// topology at session start, and the single mutating close call at submit.
// It satisfies the session package's ShiftDataSource, TopologySource and
// ShiftSubmitter interfaces.
type ShiftAPIClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewShiftAPIClient(baseURL string, cb *CircuitBreaker) *ShiftAPIClient {
	return &ShiftAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cb:         cb,
	}
}

// GetOpenShift fetches the currently open shift of a station with its
// opening pump/tank readings and attendant assignments.
func (c *ShiftAPIClient) GetOpenShift(ctx context.Context, stationID string) (*dto.OpenShiftResponse, error) {
	var out dto.OpenShiftResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/stations/%s/shifts/open", stationID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetIslandPumpMapping fetches the station topology: which pumps belong to
// which island. Queried once per session; the session keeps its snapshot.
func (c *ShiftAPIClient) GetIslandPumpMapping(ctx context.Context, stationID string) (map[string][]string, error) {
	var out map[string][]string
	if err := c.getJSON(ctx, fmt.Sprintf("/stations/%s/topology/islands", stationID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CloseShift submits the assembled closing payload. Non-2xx responses come
// back as *apierror.SubmissionError carrying the upstream body verbatim.
func (c *ShiftAPIClient) CloseShift(ctx context.Context, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("shiftapi: marshal close payload: %w", err)
	}

	var out dto.CloseShiftResponse
	call := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("%s/shifts/%s/close", c.baseURL, req.ShiftID), bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("shiftapi: create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("shiftapi: unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return apierror.NewSubmission(resp.StatusCode, strings.TrimSpace(string(detail)))
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("shiftapi: decode response: %w", err)
		}
		return nil
	}

	if c.cb != nil {
		err = c.cb.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ShiftAPIClient) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("shiftapi: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shiftapi: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shiftapi: %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("shiftapi: decode %s: %w", path, err)
	}
	return nil
}
