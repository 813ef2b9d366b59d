package startgg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

type querierFunc func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)

func (f querierFunc) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	return f(ctx, query, variables)
}

func setsPage(ids ...int64) json.RawMessage {
	nodes := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, map[string]any{"id": id})
	}
	body, _ := json.Marshal(map[string]any{
		"data": map[string]any{
			"event": map[string]any{
				"sets": map[string]any{"nodes": nodes},
			},
		},
	})
	return body
}

func TestFetchAllNodes_StopsOnEmptyPage(t *testing.T) {
	pages := []json.RawMessage{
		setsPage(1, 2),
		setsPage(3),
		setsPage(),
		setsPage(99), // must never be requested
	}
	var requested []int
	q := querierFunc(func(_ context.Context, _ string, vars map[string]any) (json.RawMessage, error) {
		page := vars["page"].(int)
		requested = append(requested, page)
		return pages[page-1], nil
	})

	nodes, err := FetchAllNodes[SetNode](context.Background(), q, PageRequest{
		Op:      "EventSets",
		Query:   setsQuery,
		KeyPath: []string{"event", "sets"},
		PerPage: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if nodes[2].ID != 3 {
		t.Errorf("expected last node id 3, got %d", nodes[2].ID)
	}
	if len(requested) != 3 {
		t.Errorf("expected pages 1..3 requested, got %v", requested)
	}
}

func TestFetchAllNodes_PreservesVariables(t *testing.T) {
	base := map[string]any{"eventId": int64(7)}
	q := querierFunc(func(_ context.Context, _ string, vars map[string]any) (json.RawMessage, error) {
		if vars["eventId"] != int64(7) {
			t.Errorf("eventId variable lost: %v", vars)
		}
		if _, ok := vars["perPage"]; !ok {
			t.Error("perPage variable missing")
		}
		return setsPage(), nil
	})

	_, err := FetchAllNodes[SetNode](context.Background(), q, PageRequest{
		Op:        "EventSets",
		Query:     setsQuery,
		Variables: base,
		KeyPath:   []string{"event", "sets"},
		PerPage:   50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, leaked := base["page"]; leaked {
		t.Error("pagination variables leaked into the caller's map")
	}
}

func TestFetchAllNodes_MissingKeyPathIsFatal(t *testing.T) {
	q := querierFunc(func(_ context.Context, _ string, _ map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{"data":{"event":null}}`), nil
	})

	_, err := FetchAllNodes[SetNode](context.Background(), q, PageRequest{
		Op:      "EventSets",
		Query:   setsQuery,
		KeyPath: []string{"event", "sets"},
		PerPage: 50,
	})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.Op != "EventSets" {
		t.Errorf("unexpected op: %q", fe.Op)
	}
}

func TestFetchAllNodes_QuerierErrorAborts(t *testing.T) {
	boom := fmt.Errorf("exhausted retries")
	q := querierFunc(func(_ context.Context, _ string, _ map[string]any) (json.RawMessage, error) {
		return nil, boom
	})
	_, err := FetchAllNodes[SetNode](context.Background(), q, PageRequest{
		Op:      "EventSets",
		Query:   setsQuery,
		KeyPath: []string{"event", "sets"},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected querier error, got %v", err)
	}
}

func TestDig(t *testing.T) {
	body := json.RawMessage(`{"data":{"phase":{"seeds":{"nodes":[]}}}}`)

	got, err := dig(body, "PhaseSeeds", "data", "phase", "seeds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"nodes":[]}` {
		t.Errorf("unexpected container: %s", got)
	}

	if _, err := dig(body, "PhaseSeeds", "data", "event"); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := dig(json.RawMessage(`{"data":{"phase":null}}`), "PhaseSeeds", "data", "phase"); err == nil {
		t.Error("expected error for null intermediate")
	}
}

func TestDigNullable(t *testing.T) {
	nullEntity := json.RawMessage(`{"data":{"tournament":null}}`)
	got, err := digNullable(nullEntity, "TournamentEvents", "data", "tournament")
	if err != nil {
		t.Fatalf("null final key must not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for null entity, got %s", got)
	}

	missing := json.RawMessage(`{"data":{}}`)
	if _, err := digNullable(missing, "TournamentEvents", "data", "tournament"); err == nil {
		t.Error("expected structural error for missing key")
	}

	present := json.RawMessage(`{"data":{"tournament":{"id":1}}}`)
	got, err = digNullable(present, "TournamentEvents", "data", "tournament")
	if err != nil || got == nil {
		t.Fatalf("expected entity, got %s err %v", got, err)
	}
}
