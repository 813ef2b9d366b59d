package startgg

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// PageRequest describes one paginated node-list query.
type PageRequest struct {
	// Op names the operation for error reporting.
	Op string
	// Query is the GraphQL request template; it must take $page and $perPage.
	Query string
	// Variables are the non-pagination variables. The map is not mutated.
	Variables map[string]any
	// KeyPath locates the node-list container under the "data" root, e.g.
	// ["event", "sets"] or ["phase", "seeds"].
	KeyPath []string
	// PerPage is the page size requested from the API.
	PerPage int
	// Delay is the pause between page fetches.
	Delay time.Duration
}

// FetchAllNodes drives page-by-page retrieval starting at page 1 and returns
// every node. It stops on the first empty page: the API's declared totals
// are not trustworthy, the empty-page sentinel is. A missing key path is a
// fatal *FetchError that aborts the whole pagination; transport-level
// failures are retried inside the Querier.
func FetchAllNodes[T any](ctx context.Context, q Querier, req PageRequest) ([]T, error) {
	var out []T
	for page := 1; ; page++ {
		vars := make(map[string]any, len(req.Variables)+2)
		for k, v := range req.Variables {
			vars[k] = v
		}
		vars["page"] = page
		vars["perPage"] = req.PerPage

		body, err := q.Query(ctx, req.Query, vars)
		if err != nil {
			return nil, err
		}

		path := append([]string{"data"}, req.KeyPath...)
		container, err := dig(body, req.Op, path...)
		if err != nil {
			return nil, err
		}

		var pg struct {
			Nodes []T `json:"nodes"`
		}
		if err := json.Unmarshal(container, &pg); err != nil {
			return nil, &FetchError{Op: req.Op, Path: append(path, "nodes")}
		}
		if len(pg.Nodes) == 0 {
			return out, nil
		}
		out = append(out, pg.Nodes...)

		if req.Delay > 0 {
			timer := time.NewTimer(req.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, eris.Wrap(ctx.Err(), "startgg: pagination cancelled")
			case <-timer.C:
			}
		}
	}
}

var nullLiteral = []byte("null")

// dig walks a key path through nested JSON objects. Missing or null keys
// are a structural *FetchError.
func dig(raw json.RawMessage, op string, path ...string) (json.RawMessage, error) {
	cur := raw
	for i, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return nil, &FetchError{Op: op, Path: path[:i+1]}
		}
		next, ok := obj[key]
		if !ok || bytes.Equal(bytes.TrimSpace(next), nullLiteral) {
			return nil, &FetchError{Op: op, Path: path[:i+1]}
		}
		cur = next
	}
	return cur, nil
}

// digNullable walks a key path like dig but distinguishes the final key
// being present-but-null (returned as nil, no error) from missing
// (structural error). Callers use this where a null entity means "does not
// exist" rather than "malformed response".
func digNullable(raw json.RawMessage, op string, path ...string) (json.RawMessage, error) {
	if len(path) == 0 {
		return raw, nil
	}
	parent := raw
	if len(path) > 1 {
		var err error
		parent, err = dig(raw, op, path[:len(path)-1]...)
		if err != nil {
			return nil, err
		}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(parent, &obj); err != nil {
		return nil, &FetchError{Op: op, Path: path}
	}
	last, ok := obj[path[len(path)-1]]
	if !ok {
		return nil, &FetchError{Op: op, Path: path}
	}
	if bytes.Equal(bytes.TrimSpace(last), nullLiteral) {
		return nil, nil
	}
	return last, nil
}
