package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/stratctl/internal/failure"
	"github.com/jbweber/stratctl/internal/stratisd"
)

const (
	stoppedUUID1 = "11111111111111111111111111111111"
	stoppedUUID2 = "22222222222222222222222222222222"
)

func stoppedPoolsBus() *fakeBus {
	devs := []any{
		map[string]any{"uuid": "bd2", "devnode": "/dev/sdc"},
		map[string]any{"uuid": "bd1", "devnode": "/dev/sdb"},
	}

	bus := newFakeBus()
	bus.properties[stratisd.ManagerInterface+".StoppedPools"] = map[string]any{
		stoppedUUID1: map[string]any{
			"name":             "p1",
			"devs":             devs,
			"metadata_version": []any{true, uint64(2)},
		},
		stoppedUUID2: map[string]any{
			"devs":            []any{map[string]any{"uuid": "bd3", "devnode": "/dev/sdd"}},
			"key_description": []any{true, []any{true, "key"}},
		},
	}
	return bus
}

func TestManager_ListStoppedPools(t *testing.T) {
	mgr := newTestManager(stoppedPoolsBus())

	pools, err := mgr.ListStoppedPools(context.Background())
	require.NoError(t, err)
	require.Len(t, pools, 2)

	// A pool with no readable name sorts first.
	assert.Equal(t, "", pools[0].Name)
	assert.Equal(t, stoppedUUID2, pools[0].UUID)
	assert.True(t, pools[0].Encrypted)

	assert.Equal(t, "p1", pools[1].Name)
	assert.False(t, pools[1].Encrypted)
	assert.Equal(t, []StoppedDeviceInfo{
		{UUID: "bd1", Devnode: "/dev/sdb"},
		{UUID: "bd2", Devnode: "/dev/sdc"},
	}, pools[1].Devices)
}

func TestManager_ListStoppedPools_Errors(t *testing.T) {
	t.Run("property missing", func(t *testing.T) {
		mgr := newTestManager(newFakeBus())
		_, err := mgr.ListStoppedPools(context.Background())
		assert.ErrorContains(t, err, "failed to get stopped pools")
	})

	t.Run("wrong type", func(t *testing.T) {
		bus := newFakeBus()
		bus.properties[stratisd.ManagerInterface+".StoppedPools"] = "nope"
		_, err := newTestManager(bus).ListStoppedPools(context.Background())
		assert.ErrorContains(t, err, "unexpected type string")
	})
}

func TestManager_GetStoppedPool(t *testing.T) {
	mgr := newTestManager(stoppedPoolsBus())
	ctx := context.Background()

	pool, err := mgr.GetStoppedPool(ctx, PoolByName("p1"))
	require.NoError(t, err)
	assert.Equal(t, stoppedUUID1, pool.UUID)

	pool, err = mgr.GetStoppedPool(ctx, PoolByUUID(uuid.MustParse(stoppedUUID2)))
	require.NoError(t, err)
	assert.Empty(t, pool.Name)
	assert.Len(t, pool.Devices, 1)

	_, err = mgr.GetStoppedPool(ctx, PoolByName("p9"))
	var notFound *failure.NotFoundError
	require.True(t, errors.As(err, &notFound), "error = %v", err)
	assert.Equal(t, "stopped pool", notFound.Category)

	_, err = mgr.GetStoppedPool(ctx, PoolSelector{})
	assert.Error(t, err)
}
