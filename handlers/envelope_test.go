// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reachcrm-server/commons"
	"reachcrm-server/middlewares"

	"github.com/labstack/echo/v4"
)

func runErrorHandler(t *testing.T, err error) (int, Response) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/contacts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(err, c)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal envelope: %v", err)
	}
	return rec.Code, resp
}

func TestErrorHandlerMapsStatusToCode(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusBadRequest, commons.CodeValidation},
		{http.StatusUnauthorized, commons.CodeUnauthorized},
		{http.StatusForbidden, commons.CodeForbidden},
		{http.StatusNotFound, commons.CodeNotFound},
		{http.StatusConflict, commons.CodeDuplicate},
		{http.StatusRequestEntityTooLarge, commons.CodePayloadTooLarge},
		{http.StatusTooManyRequests, commons.CodeRateLimited},
		{http.StatusBadGateway, commons.CodeUpstream},
		{http.StatusTeapot, commons.CodeInternal},
	}
	for _, tc := range cases {
		status, resp := runErrorHandler(t, &echo.HTTPError{Code: tc.status, Message: "nope"})
		if status != tc.status {
			t.Errorf("status %d: expected response status %d, got %d", tc.status, tc.status, status)
		}
		if resp.Success {
			t.Errorf("status %d: expected success=false", tc.status)
		}
		if resp.Error == nil || resp.Error.Code != tc.code {
			t.Errorf("status %d: expected error code %s, got %+v", tc.status, tc.code, resp.Error)
		}
		if resp.Error != nil && resp.Error.Message != "nope" {
			t.Errorf("status %d: expected message to pass through, got %q", tc.status, resp.Error.Message)
		}
	}
}

func TestErrorHandlerKeepsExplicitErrorBody(t *testing.T) {
	err := APIError(http.StatusBadGateway, commons.CodeUpstream, "assistant unavailable")
	status, resp := runErrorHandler(t, err)
	if status != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != commons.CodeUpstream {
		t.Fatalf("Expected UPSTREAM_ERROR code, got %+v", resp.Error)
	}
	if resp.Error.Message != "assistant unavailable" {
		t.Errorf("Expected explicit message, got %q", resp.Error.Message)
	}
}

func TestErrorHandlerQuotaExceededKeepsDistinctCode(t *testing.T) {
	status, resp := runErrorHandler(t, middlewares.QuotaExceededError(50, 50, 0))
	if status != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != commons.CodeQuotaExceeded {
		t.Fatalf("Expected QUOTA_EXCEEDED code, got %+v", resp.Error)
	}
}

func TestErrorHandlerHidesUnexpectedErrors(t *testing.T) {
	status, resp := runErrorHandler(t, errors.New("pq: connection refused"))
	if status != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != commons.CodeInternal {
		t.Fatalf("Expected INTERNAL_ERROR code, got %+v", resp.Error)
	}
	if resp.Error.Message != "Internal server error" {
		t.Errorf("Expected generic message, got %q", resp.Error.Message)
	}
}

func TestRespondWrapsDataInEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/subscription", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := respond(c, http.StatusOK, map[string]string{"plan": "FREE"}); err != nil {
		t.Fatalf("respond returned error: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal envelope: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success=true")
	}
	if resp.Error != nil {
		t.Errorf("Expected no error body, got %+v", resp.Error)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok || data["plan"] != "FREE" {
		t.Errorf("Expected data to round-trip, got %v", resp.Data)
	}
}
