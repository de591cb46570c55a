package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/committee-engine/internal/model"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *CommitteeCache) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewCommitteeCache(client, time.Minute)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "failure: empty url", url: ""},
		{name: "failure: invalid scheme", url: "invalid://url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.url)
			assert.Error(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestCommitteeCache_RoundTrip(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	admin := model.Principal{ID: 10, Role: model.RoleAdmin}

	_, ok, err := c.GetCommittees(ctx, admin)
	require.NoError(t, err)
	assert.False(t, ok)

	list := []*model.Committee{
		{ID: 1, Name: "family", Amount: decimal.RequireFromString("1200.50"), MaxMembers: 4, Status: model.CommitteeStatusInactive},
	}
	require.NoError(t, c.SetCommittees(ctx, admin, list))
	assert.True(t, mr.Exists(key(10, model.RoleAdmin)))
	assert.Equal(t, time.Minute, mr.TTL(key(10, model.RoleAdmin)))

	got, ok, err := c.GetCommittees(ctx, admin)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "family", got[0].Name)
	assert.True(t, list[0].Amount.Equal(got[0].Amount))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.GetCommittees(ctx, admin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommitteeCache_Invalidate(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.SetCommittees(ctx, model.Principal{ID: 10, Role: model.RoleAdmin}, []*model.Committee{}))
	require.NoError(t, c.SetCommittees(ctx, model.Principal{ID: 20, Role: model.RoleUser}, []*model.Committee{}))
	require.NoError(t, c.SetCommittees(ctx, model.Principal{ID: 21, Role: model.RoleUser}, []*model.Committee{}))

	require.NoError(t, c.Invalidate(ctx, 10, 20))
	require.NoError(t, c.Invalidate(ctx))

	assert.False(t, mr.Exists(key(10, model.RoleAdmin)))
	assert.False(t, mr.Exists(key(20, model.RoleUser)))
	assert.True(t, mr.Exists(key(21, model.RoleUser)))
}

func TestCommitteeCache_Errors(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	p := model.Principal{ID: 20, Role: model.RoleUser}

	require.NoError(t, mr.Set(key(20, model.RoleUser), "not json"))
	_, ok, err := c.GetCommittees(ctx, p)
	assert.Error(t, err)
	assert.False(t, ok)

	mr.SetError("server down")
	_, _, err = c.GetCommittees(ctx, p)
	assert.Error(t, err)
	assert.Error(t, c.Invalidate(ctx, 20))

	mr.SetError("")
	assert.NoError(t, c.Invalidate(ctx, 20))
}

func TestCommitteeCache_InvalidateRepeatsAfterDelay(t *testing.T) {
	mr, c := setupTestRedis(t)
	c.WithRedelete(50 * time.Millisecond)
	ctx := context.Background()
	admin := model.Principal{ID: 10, Role: model.RoleAdmin}

	require.NoError(t, c.SetCommittees(ctx, admin, []*model.Committee{{ID: 1}}))
	require.NoError(t, c.Invalidate(ctx, 10))
	assert.False(t, mr.Exists(key(10, model.RoleAdmin)))

	// a reader that queried before the commit stores its list after the first delete
	require.NoError(t, c.SetCommittees(ctx, admin, []*model.Committee{{ID: 1}}))
	assert.True(t, mr.Exists(key(10, model.RoleAdmin)))

	assert.Eventually(t, func() bool {
		return !mr.Exists(key(10, model.RoleAdmin))
	}, time.Second, 10*time.Millisecond)
}

func TestCommitteeCache_InvalidateWithoutRedelete(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	admin := model.Principal{ID: 10, Role: model.RoleAdmin}

	require.NoError(t, c.Invalidate(ctx, 10))
	require.NoError(t, c.SetCommittees(ctx, admin, []*model.Committee{{ID: 1}}))

	time.Sleep(50 * time.Millisecond)
	assert.True(t, mr.Exists(key(10, model.RoleAdmin)))
}
