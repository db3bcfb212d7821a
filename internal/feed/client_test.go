package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/sairaghavaa/sol-analytics/internal/errs"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestFetchQueryResultsPagination(t *testing.T) {
	const total = 5003
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Dune-API-Key"); got != "test-key" {
			t.Errorf("Expected api key header, got %q", got)
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		fmt.Fprint(w, `{"result":{"rows":[`)
		first := true
		for i := offset; i < offset+limit && i < total; i++ {
			if !first {
				fmt.Fprint(w, ",")
			}
			first = false
			fmt.Fprintf(w, `{"n":%d}`, i)
		}
		fmt.Fprint(w, `]}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 6000, quietLogger())
	rows, err := client.FetchQueryResultsAsRows(context.Background(), 42)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rows) != total {
		t.Errorf("Expected %d rows across pages, got %d", total, len(rows))
	}
}

func TestFetchQueryResultsEmptyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"rows":[]}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 6000, quietLogger())
	_, err := client.FetchQueryResultsAsRows(context.Background(), 42)
	var feedErr *errs.UpstreamFeedError
	if !errors.As(err, &feedErr) {
		t.Fatalf("Expected UpstreamFeedError for empty result set, got %v", err)
	}
	if feedErr.QueryID != 42 {
		t.Errorf("Expected query id 42 in error, got %d", feedErr.QueryID)
	}
}

func TestFetchQueryResultsNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 6000, quietLogger())
	_, err := client.FetchQueryResultsAsRows(context.Background(), 7)
	var feedErr *errs.UpstreamFeedError
	if !errors.As(err, &feedErr) {
		t.Fatalf("Expected UpstreamFeedError, got %v", err)
	}
	if feedErr.Status != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 in error, got %d", feedErr.Status)
	}
}
