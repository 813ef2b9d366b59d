package pipeline

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/smashdata/startgg-harvester/internal/model"
	"github.com/smashdata/startgg-harvester/internal/resilience"
	"github.com/smashdata/startgg-harvester/internal/startgg"
	"github.com/smashdata/startgg-harvester/internal/store"
)

// RefreshSummary tallies one user refresh pass.
type RefreshSummary struct {
	Refreshed int
	Absent    int
	Failed    int
	Resumed   int
}

// RefreshUsers re-fetches every stored user and replaces records by id.
// This is the one operation allowed to overwrite the write-once user log.
// Users the API reports as absent keep their existing record. The pass
// checkpoints the refreshed record itself after each user, so an
// interrupted run resumes with its finished work intact: checkpointed
// records are merged back into memory on the next run and their users are
// not re-fetched. Failed fetches are never checkpointed, so they are
// retried on resume.
func (p *Pipeline) RefreshUsers(ctx context.Context) (*RefreshSummary, error) {
	checkpointPath := p.cfg.Refresh.CheckpointFile
	if checkpointPath == "" {
		checkpointPath = p.cfg.Data.UsersFile + ".checkpoint"
	}
	checkpointed, err := store.ReadJSONL[model.User](checkpointPath)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read refresh checkpoint")
	}
	checkpoint := make(map[int64]struct{}, len(checkpointed))
	for _, u := range checkpointed {
		p.state.Users[u.UserID] = u
		checkpoint[u.UserID] = struct{}{}
	}

	ids := make([]int64, 0, len(p.state.Users))
	for id := range p.state.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	log := zap.L()
	log.Info("user refresh starting",
		zap.Int("users", len(ids)),
		zap.Int("checkpointed", len(checkpoint)),
	)

	summary := &RefreshSummary{}
	consecutiveRateLimits := 0
	sinceLastPause := 0

	for i, id := range ids {
		if _, seen := checkpoint[id]; seen {
			summary.Resumed++
			continue
		}

		refreshed, outcome := p.refreshOne(ctx, id, &consecutiveRateLimits)
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		switch outcome {
		case refreshOK:
			p.state.Users[id] = refreshed
			summary.Refreshed++
		case refreshAbsent:
			summary.Absent++
		case refreshFailed:
			summary.Failed++
		}

		// The checkpoint carries the record, not just the id: an id alone
		// would let a crash strand refreshed data in memory.
		if outcome != refreshFailed {
			if err := store.AppendJSONL(checkpointPath, []model.User{refreshed}); err != nil {
				return summary, eris.Wrap(err, "pipeline: append refresh checkpoint")
			}
		}

		if p.cfg.Refresh.ProgressInterval > 0 && (i+1)%p.cfg.Refresh.ProgressInterval == 0 {
			log.Info("user refresh progress",
				zap.Int("done", i+1),
				zap.Int("total", len(ids)),
				zap.Int("refreshed", summary.Refreshed),
				zap.Int("absent", summary.Absent),
				zap.Int("failed", summary.Failed),
			)
		}

		sinceLastPause++
		if p.cfg.Refresh.PauseEvery > 0 && sinceLastPause >= p.cfg.Refresh.PauseEvery {
			sinceLastPause = 0
			log.Info("pausing to stay under rate limits", zap.Duration("pause", p.cfg.Refresh.Pause()))
			if err := sleepCtx(ctx, p.cfg.Refresh.Pause()); err != nil {
				return summary, err
			}
		} else if err := sleepCtx(ctx, p.cfg.Refresh.Sleep()); err != nil {
			return summary, err
		}
	}

	if err := p.rewriteUsers(); err != nil {
		return summary, err
	}
	if err := os.Remove(checkpointPath); err != nil && !os.IsNotExist(err) {
		log.Warn("could not remove refresh checkpoint", zap.Error(err))
	}

	log.Info("user refresh finished",
		zap.Int("refreshed", summary.Refreshed),
		zap.Int("absent", summary.Absent),
		zap.Int("failed", summary.Failed),
		zap.Int("resumed", summary.Resumed),
	)
	return summary, nil
}

type refreshOutcome int

const (
	refreshOK refreshOutcome = iota
	refreshAbsent
	refreshFailed
)

// refreshOne fetches one user with its own retry loop. Rate limits get an
// escalating backoff proportional to the consecutive rate-limit count,
// distinct from the flat delay used for other transient failures.
func (p *Pipeline) refreshOne(ctx context.Context, id int64, consecutiveRateLimits *int) (model.User, refreshOutcome) {
	existing := p.state.Users[id]
	retries := p.cfg.Refresh.UserRetries
	if retries <= 0 {
		retries = 1
	}

	for attempt := 1; attempt <= retries; attempt++ {
		user, player, err := p.api.User(ctx, id, existing.PlayerID)
		if err == nil {
			*consecutiveRateLimits = 0
			return mergeRefreshed(existing, user, player), refreshOK
		}
		if eris.Is(err, startgg.ErrNotFound) {
			*consecutiveRateLimits = 0
			zap.L().Info("user no longer exists, keeping record", zap.Int64("user_id", id))
			return existing, refreshAbsent
		}
		if ctx.Err() != nil {
			return existing, refreshFailed
		}

		delay := p.cfg.API.RetryDelay()
		if resilience.IsRateLimited(err) {
			*consecutiveRateLimits++
			delay = rateLimitBackoff(p.cfg.API.RetryDelay(), p.cfg.Refresh.Sleep(), *consecutiveRateLimits)
			zap.L().Warn("rate limited during refresh",
				zap.Int64("user_id", id),
				zap.Int("consecutive", *consecutiveRateLimits),
				zap.Duration("backoff", delay),
			)
		} else {
			zap.L().Warn("user fetch failed",
				zap.Int64("user_id", id),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		if attempt < retries {
			if err := sleepCtx(ctx, delay); err != nil {
				return existing, refreshFailed
			}
		}
	}
	return existing, refreshFailed
}

// mergeRefreshed rebuilds a user record from fresh API data, keeping the
// stored player identity when the API no longer returns one.
func mergeRefreshed(existing model.User, user *startgg.UserNode, player *startgg.PlayerNode) model.User {
	out := model.User{
		UserID:        existing.UserID,
		PlayerID:      existing.PlayerID,
		GamerTag:      existing.GamerTag,
		Prefix:        existing.Prefix,
		GenderPronoun: "unknown",
		Discriminator: user.Discriminator,
	}
	if user.GenderPronoun != nil && *user.GenderPronoun != "" {
		out.GenderPronoun = *user.GenderPronoun
	}
	if player != nil {
		playerID := player.ID
		out.PlayerID = &playerID
		out.GamerTag = player.GamerTag
		out.Prefix = player.Prefix
	}
	applyAuthorizations(&out, user.Authorizations)
	return out
}

// rateLimitBackoff escalates with the consecutive rate-limit count, with a
// floor so the first hit already backs off meaningfully.
func rateLimitBackoff(retryDelay, sleep time.Duration, consecutive int) time.Duration {
	backoff := retryDelay * time.Duration(consecutive)
	if floor := sleep * 5; backoff < floor {
		backoff = floor
	}
	if backoff < 10*time.Second {
		backoff = 10 * time.Second
	}
	return backoff
}

func (p *Pipeline) rewriteUsers() error {
	ids := make([]int64, 0, len(p.state.Users))
	for id := range p.state.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, p.state.Users[id])
	}
	if err := p.store.RewriteUsers(users); err != nil {
		return eris.Wrap(err, "pipeline: rewrite users")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
