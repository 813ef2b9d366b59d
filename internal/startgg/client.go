package startgg

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/smashdata/startgg-harvester/internal/resilience"
)

// Querier issues one GraphQL request and returns the raw response envelope.
type Querier interface {
	Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// API is the typed surface the ingestion pipeline consumes.
type API interface {
	TournamentsPage(ctx context.Context, gameID, countryCode string, page, perPage int) ([]TournamentNode, int, error)
	TournamentEvents(ctx context.Context, tournamentID int64, gameID string) ([]TournamentEventNode, error)
	FirstPhaseID(ctx context.Context, eventID int64) (int64, error)
	EventStandings(ctx context.Context, eventID int64, perPage int) ([]StandingNode, error)
	PhaseSeeds(ctx context.Context, phaseID int64, perPage int) ([]SeedNode, error)
	EventSets(ctx context.Context, eventID int64, perPage int) ([]SetNode, error)
	EventDetails(ctx context.Context, eventID int64) (*EventDetail, error)
	User(ctx context.Context, userID int64, playerID *int64) (*UserNode, *PlayerNode, error)
}

// Config carries everything the client needs. It is passed in explicitly so
// there is no process-wide API state and tests can construct clients freely.
type Config struct {
	URL        string
	Token      string
	MaxRetries int
	RetryDelay time.Duration
	PageDelay  time.Duration
	Timeout    time.Duration
}

// Client talks to the start.gg GraphQL endpoint. All requests go through a
// single rate limiter and the retry gate; requests are issued one at a time.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient builds a Client from cfg, applying defaults for zero fields.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = "https://api.start.gg/gql/alpha"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.PageDelay > 0 {
		limit = rate.Every(cfg.PageDelay)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		retry: resilience.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			Delay:       cfg.RetryDelay,
			OnRetry:     resilience.RetryLogger("startgg", "query"),
		},
	}
}

type gqlError struct {
	Message string `json:"message"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Query posts one GraphQL request. Transport failures, retryable HTTP
// statuses, and non-JSON bodies are retried with a flat delay up to the
// configured cap; responses that decode but carry GraphQL errors surface as
// a FetchError (except rate-limit messages, which stay retryable).
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (json.RawMessage, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "startgg: rate limiter wait")
		}
		return c.post(ctx, query, variables)
	})
}

func (c *Client) post(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, eris.Wrap(err, "startgg: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "startgg: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "startgg: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "startgg: read body"), resp.StatusCode)
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		if resp.StatusCode == http.StatusTooManyRequests {
			zap.L().Warn("rate limited by start.gg", zap.Int("status", resp.StatusCode))
		}
		return nil, resilience.NewTransientError(
			eris.Errorf("startgg: http %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("startgg: unexpected status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Non-JSON bodies come back from intermediate proxies during
		// outages; treat them like a transport failure.
		return nil, resilience.NewTransientError(eris.Wrap(err, "startgg: decode response"), resp.StatusCode)
	}

	if len(env.Errors) > 0 {
		for _, ge := range env.Errors {
			if strings.Contains(strings.ToLower(ge.Message), "too many requests") {
				return nil, resilience.NewTransientError(eris.New("startgg: too many requests"), http.StatusTooManyRequests)
			}
		}
		return nil, eris.Errorf("startgg: graphql error: %s", env.Errors[0].Message)
	}

	return body, nil
}

// TournamentsPage fetches one page of finished tournaments for a game,
// newest first, together with the declared total page count. The declared
// total is advisory only; harvest loops still stop on an empty page.
func (c *Client) TournamentsPage(ctx context.Context, gameID, countryCode string, page, perPage int) ([]TournamentNode, int, error) {
	body, err := c.Query(ctx, tournamentsByGameQuery(countryCode), map[string]any{
		"gameId":  gameID,
		"page":    page,
		"perPage": perPage,
	})
	if err != nil {
		return nil, 0, err
	}

	container, err := dig(body, "TournamentsPage", "data", "tournaments")
	if err != nil {
		return nil, 0, err
	}
	var listing struct {
		Nodes    []TournamentNode `json:"nodes"`
		PageInfo struct {
			TotalPages int `json:"totalPages"`
		} `json:"pageInfo"`
	}
	if err := json.Unmarshal(container, &listing); err != nil {
		return nil, 0, &FetchError{Op: "TournamentsPage", Path: []string{"data", "tournaments"}}
	}
	return listing.Nodes, listing.PageInfo.TotalPages, nil
}

// TournamentEvents lists the events of one tournament for the given game.
// ErrNotFound is returned when the tournament no longer exists.
func (c *Client) TournamentEvents(ctx context.Context, tournamentID int64, gameID string) ([]TournamentEventNode, error) {
	body, err := c.Query(ctx, tournamentEventsQuery, map[string]any{
		"tournamentId": tournamentID,
		"gameId":       gameID,
	})
	if err != nil {
		return nil, err
	}

	tournament, err := digNullable(body, "TournamentEvents", "data", "tournament")
	if err != nil {
		return nil, err
	}
	if tournament == nil {
		return nil, eris.Wrapf(ErrNotFound, "tournament %d", tournamentID)
	}
	var node struct {
		Events []TournamentEventNode `json:"events"`
	}
	if err := json.Unmarshal(tournament, &node); err != nil {
		return nil, &FetchError{Op: "TournamentEvents", Path: []string{"data", "tournament", "events"}}
	}
	return node.Events, nil
}

// FirstPhaseID returns the id of the event's first phase, or ErrNoPhase when
// the event has none.
func (c *Client) FirstPhaseID(ctx context.Context, eventID int64) (int64, error) {
	body, err := c.Query(ctx, phasesQuery, map[string]any{"eventId": eventID})
	if err != nil {
		return 0, err
	}

	event, err := digNullable(body, "FirstPhaseID", "data", "event")
	if err != nil {
		return 0, err
	}
	if event == nil {
		return 0, eris.Wrapf(ErrNoPhase, "event %d", eventID)
	}
	var node struct {
		Phases []PhaseNode `json:"phases"`
	}
	if err := json.Unmarshal(event, &node); err != nil {
		return 0, &FetchError{Op: "FirstPhaseID", Path: []string{"data", "event", "phases"}}
	}
	if len(node.Phases) == 0 {
		return 0, eris.Wrapf(ErrNoPhase, "event %d", eventID)
	}
	return node.Phases[0].ID, nil
}

// EventStandings pages through all standings of an event.
func (c *Client) EventStandings(ctx context.Context, eventID int64, perPage int) ([]StandingNode, error) {
	return FetchAllNodes[StandingNode](ctx, c, PageRequest{
		Op:        "EventStandings",
		Query:     standingsQuery,
		Variables: map[string]any{"eventId": eventID},
		KeyPath:   []string{"event", "standings"},
		PerPage:   perPage,
		Delay:     c.cfg.PageDelay,
	})
}

// PhaseSeeds pages through all seeds of a phase.
func (c *Client) PhaseSeeds(ctx context.Context, phaseID int64, perPage int) ([]SeedNode, error) {
	return FetchAllNodes[SeedNode](ctx, c, PageRequest{
		Op:        "PhaseSeeds",
		Query:     seedsQuery,
		Variables: map[string]any{"phaseId": phaseID},
		KeyPath:   []string{"phase", "seeds"},
		PerPage:   perPage,
		Delay:     c.cfg.PageDelay,
	})
}

// EventSets pages through all completed sets of an event.
func (c *Client) EventSets(ctx context.Context, eventID int64, perPage int) ([]SetNode, error) {
	return FetchAllNodes[SetNode](ctx, c, PageRequest{
		Op:        "EventSets",
		Query:     setsQuery,
		Variables: map[string]any{"eventId": eventID},
		KeyPath:   []string{"event", "sets"},
		PerPage:   perPage,
		Delay:     c.cfg.PageDelay,
	})
}

// EventDetails fetches one event and its parent tournament by id.
// ErrNotFound when the event is null; a present event without tournament
// information is structural and fatal.
func (c *Client) EventDetails(ctx context.Context, eventID int64) (*EventDetail, error) {
	body, err := c.Query(ctx, eventDetailsQuery, map[string]any{"eventId": eventID})
	if err != nil {
		return nil, err
	}

	event, err := digNullable(body, "EventDetails", "data", "event")
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, eris.Wrapf(ErrNotFound, "event %d", eventID)
	}
	var detail EventDetail
	if err := json.Unmarshal(event, &detail); err != nil {
		return nil, &FetchError{Op: "EventDetails", Path: []string{"data", "event"}}
	}
	if detail.Tournament == nil {
		return nil, &FetchError{Op: "EventDetails", Path: []string{"data", "event", "tournament"}}
	}
	return &detail, nil
}

// User fetches a user, and its player when playerID is known. ErrNotFound
// when the API reports the user as null.
func (c *Client) User(ctx context.Context, userID int64, playerID *int64) (*UserNode, *PlayerNode, error) {
	query := userQuery
	vars := map[string]any{"userId": userID}
	if playerID != nil {
		query = userPlayerQuery
		vars["playerId"] = *playerID
	}
	body, err := c.Query(ctx, query, vars)
	if err != nil {
		return nil, nil, err
	}

	userRaw, err := digNullable(body, "User", "data", "user")
	if err != nil {
		return nil, nil, err
	}
	if userRaw == nil {
		return nil, nil, eris.Wrapf(ErrNotFound, "user %d", userID)
	}
	var user UserNode
	if err := json.Unmarshal(userRaw, &user); err != nil {
		return nil, nil, &FetchError{Op: "User", Path: []string{"data", "user"}}
	}

	var player *PlayerNode
	if playerID != nil {
		playerRaw, err := digNullable(body, "User", "data", "player")
		if err == nil && playerRaw != nil {
			var p PlayerNode
			if err := json.Unmarshal(playerRaw, &p); err == nil {
				player = &p
			}
		}
	}
	return &user, player, nil
}
