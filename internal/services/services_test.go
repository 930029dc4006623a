package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/mcb/internal/shared"
	th "github.com/desertthunder/mcb/internal/testing"
	"golang.org/x/time/rate"
)

func TestClient(t *testing.T) {
	t.Run("transport error wraps ErrAPIRequest", func(t *testing.T) {
		rt := th.NewMockRoundTripper(nil, errors.New("connection refused"))
		svc := NewSheetService("http://sheets.invalid", "sheet", "", WithHTTPClient(&http.Client{Transport: rt}))

		_, err := svc.FetchRows(context.Background(), "Genres")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("unreadable body", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &th.FCloser{}, Header: http.Header{}}
		svc := NewSheetService("http://sheets.invalid", "sheet", "", WithHTTPClient(&http.Client{Transport: th.NewMockRoundTripper(resp, nil)}))

		_, err := svc.FetchRows(context.Background(), "Genres")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("error message from body", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusForbidden,
			Body:       io.NopCloser(strings.NewReader(`{"error":{"message":"API key not valid"}}`)),
			Header:     http.Header{},
		}
		svc := NewSheetService("http://sheets.invalid", "sheet", "", WithHTTPClient(&http.Client{Transport: th.NewMockRoundTripper(resp, nil)}))

		_, err := svc.FetchRows(context.Background(), "Genres")
		var status *statusError
		if !errors.As(err, &status) || status.status != http.StatusForbidden {
			t.Fatalf("expected a 403 status error, got %v", err)
		}
		if !strings.Contains(err.Error(), "API key not valid") {
			t.Errorf("expected the API message in %q", err.Error())
		}
	})

	t.Run("non-positive rate disables limiting", func(t *testing.T) {
		if l := newLimiter(0); l.Limit() != rate.Inf {
			t.Errorf("expected an unlimited limiter, got %v", l.Limit())
		}
		if l := newLimiter(2); l.Limit() != 2 {
			t.Errorf("expected 2 rps, got %v", l.Limit())
		}
	})

	t.Run("WithTimeout copies the default client", func(t *testing.T) {
		cl := newClient("test", []Option{WithTimeout(5)})
		if cl.httpClient == http.DefaultClient {
			t.Error("expected WithTimeout to leave http.DefaultClient untouched")
		}
		if cl.httpClient.Timeout != 5 {
			t.Errorf("expected timeout 5, got %v", cl.httpClient.Timeout)
		}
	})
}
