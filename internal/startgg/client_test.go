package startgg

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		URL:        srv.URL,
		Token:      "test-token",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Timeout:    time.Second,
	})
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":{"event":{"phases":[{"id":11}]}}}`)) //nolint:errcheck
	})

	phaseID, err := c.FirstPhaseID(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if phaseID != 11 {
		t.Errorf("expected phase 11, got %d", phaseID)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestClient_FatalStatusNotRetried(t *testing.T) {
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FirstPhaseID(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestClient_RetriesMalformedJSON(t *testing.T) {
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`<html>gateway error</html>`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{"data":{"event":{"phases":[{"id":5}]}}}`)) //nolint:errcheck
	})

	phaseID, err := c.FirstPhaseID(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if phaseID != 5 {
		t.Errorf("expected phase 5, got %d", phaseID)
	}
}

func TestClient_GraphQLErrorIsFatal(t *testing.T) {
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"errors":[{"message":"unknown field"}]}`)) //nolint:errcheck
	})

	_, err := c.FirstPhaseID(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("graphql errors must not be retried, got %d calls", calls)
	}
}

func TestClient_RateLimitMessageRetried(t *testing.T) {
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"errors":[{"message":"Too many requests"}]}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{"data":{"event":{"phases":[{"id":3}]}}}`)) //nolint:errcheck
	})

	phaseID, err := c.FirstPhaseID(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if phaseID != 3 {
		t.Errorf("expected phase 3, got %d", phaseID)
	}
}

func TestClient_TournamentEventsNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"tournament":null}}`)) //nolint:errcheck
	})

	_, err := c.TournamentEvents(context.Background(), 42, "1386")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FirstPhaseIDNoPhases(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null event", `{"data":{"event":null}}`},
		{"empty phases", `{"data":{"event":{"phases":[]}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body)) //nolint:errcheck
			})
			_, err := c.FirstPhaseID(context.Background(), 1)
			if !errors.Is(err, ErrNoPhase) {
				t.Fatalf("expected ErrNoPhase, got %v", err)
			}
		})
	}
}

func TestClient_EventDetails(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"event":{"id":9,"name":"Singles","startAt":1700000000,` + //nolint:errcheck
			`"isOnline":false,"tournament":{"id":4,"name":"Weekly #3","countryCode":"JP"}}}}`))
	})

	detail, err := c.EventDetails(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Name != "Singles" || detail.Tournament.Name != "Weekly #3" {
		t.Errorf("unexpected detail: %+v", detail)
	}
}

func TestClient_EventDetailsNullEvent(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"event":null}}`)) //nolint:errcheck
	})
	_, err := c.EventDetails(context.Background(), 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_EventDetailsMissingTournament(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"event":{"id":9,"name":"Singles"}}}`)) //nolint:errcheck
	})
	_, err := c.EventDetails(context.Background(), 9)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
}

func TestClient_UserNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"user":null}}`)) //nolint:errcheck
	})
	_, _, err := c.User(context.Background(), 77, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_SendsAuthHeader(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.Write([]byte(`{"data":{"event":{"phases":[{"id":1}]}}}`)) //nolint:errcheck
	})
	if _, err := c.FirstPhaseID(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
