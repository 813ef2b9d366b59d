package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smashdata/startgg-harvester/internal/config"
	"github.com/smashdata/startgg-harvester/internal/model"
	"github.com/smashdata/startgg-harvester/internal/startgg"
	"github.com/smashdata/startgg-harvester/internal/store"
)

func seedUsers(t *testing.T, cfg *config.Config, users ...model.User) {
	t.Helper()
	require.NoError(t, testStore(cfg).AppendUsers(users))
}

func storedUser(id int64, tag string) model.User {
	playerID := id * 100
	return model.User{
		UserID:        id,
		PlayerID:      &playerID,
		GamerTag:      tag,
		GenderPronoun: "unknown",
	}
}

func freshUserNode(pronoun string) *startgg.UserNode {
	disc := "abc123"
	return &startgg.UserNode{Discriminator: &disc, GenderPronoun: &pronoun}
}

func TestRefreshUsers_OverwritesOnSuccess(t *testing.T) {
	p, cfg := testPipeline(t, standardAPI(), nil)
	seedUsers(t, cfg, storedUser(1, "OldTag"))
	require.NoError(t, p.LoadState())

	api := p.api.(*fakeAPI)
	api.user = func(_ context.Context, id int64, playerID *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
		require.NotNil(t, playerID, "stored player id is passed through")
		return freshUserNode("he/him"), &startgg.PlayerNode{ID: *playerID, GamerTag: "NewTag"}, nil
	}

	summary, err := p.RefreshUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Refreshed)
	assert.Equal(t, 0, summary.Failed)

	users, err := testStore(cfg).LoadUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "NewTag", users[1].GamerTag)
	assert.Equal(t, "he/him", users[1].GenderPronoun)
	require.NotNil(t, users[1].Discriminator)
	assert.Equal(t, "abc123", *users[1].Discriminator)
}

func TestRefreshUsers_AbsentKeepsRecord(t *testing.T) {
	p, cfg := testPipeline(t, standardAPI(), nil)
	seedUsers(t, cfg, storedUser(1, "Vanished"))
	require.NoError(t, p.LoadState())

	api := p.api.(*fakeAPI)
	api.user = func(_ context.Context, _ int64, _ *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
		return nil, nil, startgg.ErrNotFound
	}

	summary, err := p.RefreshUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, 0, summary.Refreshed)

	users, err := testStore(cfg).LoadUsers()
	require.NoError(t, err)
	assert.Equal(t, "Vanished", users[1].GamerTag)
}

func TestRefreshUsers_FailureKeepsRecordAndCounts(t *testing.T) {
	p, cfg := testPipeline(t, standardAPI(), nil)
	cfg.Refresh.UserRetries = 2
	seedUsers(t, cfg, storedUser(1, "Stubborn"))
	require.NoError(t, p.LoadState())

	var calls int
	api := p.api.(*fakeAPI)
	api.user = func(_ context.Context, _ int64, _ *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
		calls++
		return nil, nil, errors.New("boom")
	}

	summary, err := p.RefreshUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, calls, "retried up to the configured limit")

	users, err := testStore(cfg).LoadUsers()
	require.NoError(t, err)
	assert.Equal(t, "Stubborn", users[1].GamerTag)
}

func TestRefreshUsers_ResumesFromCheckpoint(t *testing.T) {
	p, cfg := testPipeline(t, standardAPI(), nil)
	seedUsers(t, cfg, storedUser(1, "OldTag"), storedUser(2, "Pending"))
	require.NoError(t, p.LoadState())

	// A prior interrupted run refreshed user 1; the checkpoint carries the
	// refreshed record while the log still holds the stale one.
	checkpoint := cfg.Data.UsersFile + ".checkpoint"
	require.NoError(t, store.AppendJSONL(checkpoint, []model.User{storedUser(1, "NewTag")}))

	var fetched []int64
	api := p.api.(*fakeAPI)
	api.user = func(_ context.Context, id int64, _ *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
		fetched = append(fetched, id)
		return freshUserNode("unknown"), nil, nil
	}

	summary, err := p.RefreshUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Resumed)
	assert.Equal(t, 1, summary.Refreshed)
	assert.Equal(t, []int64{2}, fetched)

	users, err := testStore(cfg).LoadUsers()
	require.NoError(t, err)
	assert.Equal(t, "NewTag", users[1].GamerTag, "checkpointed record survives into the final rewrite")

	_, err = os.Stat(checkpoint)
	assert.True(t, os.IsNotExist(err), "checkpoint removed after the final rewrite")
}

func TestRefreshUsers_InterruptedRunKeepsRefreshedWork(t *testing.T) {
	p, cfg := testPipeline(t, standardAPI(), nil)
	seedUsers(t, cfg, storedUser(1, "OldTag"), storedUser(2, "OldOther"))
	require.NoError(t, p.LoadState())

	// First run: user 1 refreshes, then the run is interrupted on user 2.
	ctx, cancel := context.WithCancel(context.Background())
	api := p.api.(*fakeAPI)
	api.user = func(_ context.Context, id int64, playerID *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
		if id == 2 {
			cancel()
			return nil, nil, ctx.Err()
		}
		return freshUserNode("unknown"), &startgg.PlayerNode{ID: *playerID, GamerTag: "NewTag"}, nil
	}
	_, err := p.RefreshUsers(ctx)
	require.Error(t, err)

	checkpointPath := cfg.Data.UsersFile + ".checkpoint"
	checkpointed, err := store.ReadJSONL[model.User](checkpointPath)
	require.NoError(t, err)
	require.Len(t, checkpointed, 1)
	assert.Equal(t, "NewTag", checkpointed[0].GamerTag)

	users, err := testStore(cfg).LoadUsers()
	require.NoError(t, err)
	assert.Equal(t, "OldTag", users[1].GamerTag, "interrupted run never rewrites the log")

	// Second run: user 1 is not re-fetched, user 2 refreshes, and both
	// refreshed records land in the final rewrite.
	api2 := &fakeAPI{user: func(_ context.Context, id int64, playerID *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
		if id == 1 {
			t.Fatal("checkpointed user re-fetched on resume")
		}
		return freshUserNode("unknown"), &startgg.PlayerNode{ID: *playerID, GamerTag: "NewOther"}, nil
	}}
	p2 := New(cfg, api2, testStore(cfg), nil)
	require.NoError(t, p2.LoadState())

	summary, err := p2.RefreshUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Resumed)
	assert.Equal(t, 1, summary.Refreshed)

	users, err = testStore(cfg).LoadUsers()
	require.NoError(t, err)
	assert.Equal(t, "NewTag", users[1].GamerTag)
	assert.Equal(t, "NewOther", users[2].GamerTag)

	_, err = os.Stat(checkpointPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRefreshUsers_FailedUsersRetryOnResume(t *testing.T) {
	p, cfg := testPipeline(t, standardAPI(), nil)
	seedUsers(t, cfg, storedUser(1, "Flaky"), storedUser(2, "Other"))
	require.NoError(t, p.LoadState())

	// User 1 exhausts its retries, then the run is interrupted on user 2.
	ctx, cancel := context.WithCancel(context.Background())
	api := p.api.(*fakeAPI)
	api.user = func(_ context.Context, id int64, _ *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
		if id == 2 {
			cancel()
			return nil, nil, ctx.Err()
		}
		return nil, nil, errors.New("boom")
	}
	_, err := p.RefreshUsers(ctx)
	require.Error(t, err)

	checkpointed, err := store.ReadJSONL[model.User](cfg.Data.UsersFile + ".checkpoint")
	require.NoError(t, err)
	assert.Empty(t, checkpointed, "failed fetches are not checkpointed")

	var fetched []int64
	api2 := &fakeAPI{user: func(_ context.Context, id int64, _ *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
		fetched = append(fetched, id)
		return freshUserNode("unknown"), nil, nil
	}}
	p2 := New(cfg, api2, testStore(cfg), nil)
	require.NoError(t, p2.LoadState())

	summary, err := p2.RefreshUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Resumed)
	assert.Equal(t, []int64{1, 2}, fetched, "failed user is retried on resume")
}

func TestRefreshUsers_KeepsPlayerIdentityWhenAPIOmitsIt(t *testing.T) {
	p, cfg := testPipeline(t, standardAPI(), nil)
	seedUsers(t, cfg, storedUser(1, "KeepMe"))
	require.NoError(t, p.LoadState())

	api := p.api.(*fakeAPI)
	api.user = func(_ context.Context, _ int64, _ *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
		return freshUserNode("she/her"), nil, nil
	}

	_, err := p.RefreshUsers(context.Background())
	require.NoError(t, err)

	users, err := testStore(cfg).LoadUsers()
	require.NoError(t, err)
	assert.Equal(t, "KeepMe", users[1].GamerTag)
	require.NotNil(t, users[1].PlayerID)
	assert.Equal(t, int64(100), *users[1].PlayerID)
	assert.Equal(t, "she/her", users[1].GenderPronoun)
}

func TestRateLimitBackoff(t *testing.T) {
	tests := []struct {
		name        string
		retryDelay  time.Duration
		sleep       time.Duration
		consecutive int
		want        time.Duration
	}{
		{"floor of ten seconds", time.Second, time.Millisecond, 1, 10 * time.Second},
		{"sleep floor dominates", time.Second, 3 * time.Second, 1, 15 * time.Second},
		{"escalates with consecutive hits", 5 * time.Second, time.Millisecond, 4, 20 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rateLimitBackoff(tt.retryDelay, tt.sleep, tt.consecutive)
			if got != tt.want {
				t.Errorf("rateLimitBackoff() = %v, want %v", got, tt.want)
			}
		})
	}
}
