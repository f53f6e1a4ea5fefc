package users

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend-ticketing/internal/models"
	"backend-ticketing/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(store.New(rdb))
}

func TestEnsureDefaultsSeedsBothAccounts(t *testing.T) {
	us := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, us.EnsureDefaults(ctx))

	pm, err := us.Get(ctx, DefaultPMUsername)
	require.NoError(t, err)
	assert.Equal(t, models.RolePM, pm.Role)
	assert.Equal(t, "Bailey", pm.Password)

	super, err := us.Get(ctx, DefaultSuperUsername)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuper, super.Role)
	assert.Equal(t, "Eunice", super.Password)
}

func TestEnsureDefaultsRunsOnce(t *testing.T) {
	us := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, us.EnsureDefaults(ctx))

	_, err := us.CreateOrUpdate(ctx, models.User{
		Username: DefaultPMUsername,
		Password: "rotated",
		Role:     models.RolePM,
	})
	require.NoError(t, err)

	// A second seed run must not roll the edit back
	require.NoError(t, us.EnsureDefaults(ctx))

	pm, err := us.Get(ctx, DefaultPMUsername)
	require.NoError(t, err)
	assert.Equal(t, "rotated", pm.Password)
}

func TestVerify(t *testing.T) {
	us := newTestStore(t)
	ctx := context.Background()

	info, err := us.Verify(ctx, DefaultSuperUsername, "Eunice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuper, info.Role)

	_, err = us.Verify(ctx, DefaultSuperUsername, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = us.Verify(ctx, "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDeleteSurvivesReseed(t *testing.T) {
	us := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, us.EnsureDefaults(ctx))
	require.NoError(t, us.Delete(ctx, DefaultPMUsername))

	// Every accessor reruns the guard internally; the deleted default
	// must stay gone
	_, err := us.Get(ctx, DefaultPMUsername)
	assert.ErrorIs(t, err, ErrNotFound)

	infos, err := us.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, DefaultSuperUsername, infos[0].Username)
}

func TestCreateOrUpdateAndListSorted(t *testing.T) {
	us := newTestStore(t)
	ctx := context.Background()

	_, err := us.CreateOrUpdate(ctx, models.User{Username: "zara", Password: "pw", Role: models.RolePM})
	require.NoError(t, err)
	_, err = us.CreateOrUpdate(ctx, models.User{Username: "adam", Password: "pw", Role: models.RoleSuper})
	require.NoError(t, err)

	infos, err := us.List(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Username)
	}
	assert.Equal(t, []string{"adam", DefaultPMUsername, DefaultSuperUsername, "zara"}, names)

	// Upsert changes the role in place
	_, err = us.CreateOrUpdate(ctx, models.User{Username: "zara", Password: "pw2", Role: models.RoleSuper})
	require.NoError(t, err)
	zara, err := us.Get(ctx, "zara")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuper, zara.Role)
	assert.Equal(t, "pw2", zara.Password)
}
