package storage

import (
	"context"
	"sort"

	"github.com/jbweber/stratctl/internal/objects"
)

// ListBlockdevs returns block devices sorted by pool and device node.
// An empty poolName lists the devices of every pool.
func (m *Manager) ListBlockdevs(ctx context.Context, poolName string) ([]BlockdevInfo, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var devices []objects.Blockdev
	if poolName != "" {
		pool, err := resolvePool(snap, PoolByName(poolName))
		if err != nil {
			return nil, err
		}
		devices = poolBlockdevs(snap, pool.Handle)
	} else {
		devices = allBlockdevs(snap)
	}

	poolNames := objects.PoolNames(snap)

	infos := make([]BlockdevInfo, 0, len(devices))
	for _, bd := range devices {
		infos = append(infos, BlockdevInfo{
			Pool:         poolNames[bd.Pool],
			Devnode:      bd.Devnode,
			PhysicalPath: bd.PhysicalPath,
			UUID:         bd.UUID,
			Tier:         bd.Tier.String(),
			Size:         bd.TotalPhysicalSize,
			NewSize:      bd.NewPhysicalSize,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Pool != infos[j].Pool {
			return infos[i].Pool < infos[j].Pool
		}
		return infos[i].Devnode < infos[j].Devnode
	})
	return infos, nil
}
