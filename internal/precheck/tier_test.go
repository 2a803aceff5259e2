package precheck

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/stratctl/internal/failure"
	"github.com/jbweber/stratctl/internal/objects"
)

type device struct {
	pool    string
	devnode string
	tier    objects.Tier
}

// buildSnapshot creates a snapshot with one pool object per distinct
// pool name and one blockdev per device.
func buildSnapshot(t *testing.T, pools []string, devices []device) *objects.Snapshot {
	t.Helper()

	raw := objects.Raw{}
	handles := map[string]objects.Handle{}
	for i, name := range pools {
		h := objects.Handle(fmt.Sprintf("/org/storage/stratis3/pool/%d", i))
		handles[name] = h
		raw[h] = map[objects.Category]objects.Properties{
			objects.CategoryPool: {"Name": name, "Uuid": fmt.Sprintf("uuid-%d", i)},
		}
	}
	for i, d := range devices {
		h := objects.Handle(fmt.Sprintf("/org/storage/stratis3/blockdev/%d", i))
		raw[h] = map[objects.Category]objects.Properties{
			objects.CategoryBlockdev: {"Devnode": d.devnode, "Pool": handles[d.pool], "Tier": uint16(d.tier)},
		}
	}

	snap, err := objects.NewSnapshot(raw, nil)
	require.NoError(t, err)
	return snap
}

func TestCheckOppositeTier(t *testing.T) {
	snap := buildSnapshot(t,
		[]string{"p1", "p2"},
		[]device{
			{pool: "p1", devnode: "/dev/sda", tier: objects.TierData},
			{pool: "p1", devnode: "/dev/sdb", tier: objects.TierCache},
			{pool: "p2", devnode: "/dev/sdc", tier: objects.TierCache},
			{pool: "p2", devnode: "/dev/sdd", tier: objects.TierData},
		})

	tests := []struct {
		name      string
		requested Set
		otherTier objects.Tier
		wantPools map[string][]string
	}{
		{
			name:      "devices in no pool",
			requested: NewSet("/dev/sdx", "/dev/sdy"),
			otherTier: objects.TierCache,
		},
		{
			name:      "devices only in the requested tier",
			requested: NewSet("/dev/sda", "/dev/sdd"),
			otherTier: objects.TierCache,
		},
		{
			name:      "one conflict",
			requested: NewSet("/dev/sdb", "/dev/sdx"),
			otherTier: objects.TierCache,
			wantPools: map[string][]string{"p1": {"/dev/sdb"}},
		},
		{
			name:      "conflicts across pools are all reported",
			requested: NewSet("/dev/sdb", "/dev/sdc"),
			otherTier: objects.TierCache,
			wantPools: map[string][]string{"p1": {"/dev/sdb"}, "p2": {"/dev/sdc"}},
		},
		{
			name:      "data tier as the opposite tier",
			requested: NewSet("/dev/sda", "/dev/sdd", "/dev/sdb"),
			otherTier: objects.TierData,
			wantPools: map[string][]string{"p1": {"/dev/sda"}, "p2": {"/dev/sdd"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOppositeTier(snap, tt.requested, tt.otherTier)

			if tt.wantPools == nil {
				assert.NoError(t, err)
				return
			}

			var inUse *failure.InUseError
			require.True(t, errors.As(err, &inUse))
			assert.Equal(t, failure.KindInUseOtherTier, inUse.Kind())
			assert.Equal(t, tt.otherTier.String(), inUse.Tier)
			assert.Equal(t, tt.wantPools, inUse.Pools)
		})
	}
}

func TestCheckSameTier(t *testing.T) {
	snap := buildSnapshot(t,
		[]string{"p1", "p2"},
		[]device{
			{pool: "p1", devnode: "/dev/sda", tier: objects.TierData},
			{pool: "p1", devnode: "/dev/sdb", tier: objects.TierData},
			{pool: "p2", devnode: "/dev/sdc", tier: objects.TierData},
			{pool: "p2", devnode: "/dev/sdd", tier: objects.TierCache},
		})

	tests := []struct {
		name          string
		pool          string
		requested     Set
		tier          objects.Tier
		wantKind      failure.Kind
		wantUnchanged []string
		wantPools     map[string][]string
	}{
		{
			name:      "all new devices",
			pool:      "p1",
			requested: NewSet("/dev/sdx"),
			tier:      objects.TierData,
		},
		{
			name:          "all owned by this pool",
			pool:          "p1",
			requested:     NewSet("/dev/sda", "/dev/sdb"),
			tier:          objects.TierData,
			wantKind:      failure.KindNoChange,
			wantUnchanged: []string{"/dev/sda", "/dev/sdb"},
		},
		{
			name:          "partly owned by this pool",
			pool:          "p1",
			requested:     NewSet("/dev/sda", "/dev/sdx"),
			tier:          objects.TierData,
			wantKind:      failure.KindPartialChange,
			wantUnchanged: []string{"/dev/sda"},
		},
		{
			name:      "entirely owned by another pool",
			pool:      "p1",
			requested: NewSet("/dev/sdc"),
			tier:      objects.TierData,
			wantKind:  failure.KindInUseSameTier,
			wantPools: map[string][]string{"p2": {"/dev/sdc"}},
		},
		{
			name:          "owned by this pool takes precedence over other pools",
			pool:          "p1",
			requested:     NewSet("/dev/sda", "/dev/sdc"),
			tier:          objects.TierData,
			wantKind:      failure.KindPartialChange,
			wantUnchanged: []string{"/dev/sda"},
		},
		{
			name:      "pool being created owns nothing",
			pool:      "new",
			requested: NewSet("/dev/sda"),
			tier:      objects.TierData,
			wantKind:  failure.KindInUseSameTier,
			wantPools: map[string][]string{"p1": {"/dev/sda"}},
		},
		{
			name:      "other tier is ignored",
			pool:      "p1",
			requested: NewSet("/dev/sdd"),
			tier:      objects.TierData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSameTier(tt.pool, snap, tt.requested, tt.tier)

			if tt.wantKind == failure.KindUnknown {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.wantKind, failure.KindOf(err))

			if tt.wantPools != nil {
				var inUse *failure.InUseError
				require.True(t, errors.As(err, &inUse))
				assert.Equal(t, tt.wantPools, inUse.Pools)
				return
			}

			var partial *failure.PartialChangeError
			require.True(t, errors.As(err, &partial))
			assert.Equal(t, tt.wantUnchanged, partial.Unchanged)
		})
	}
}
