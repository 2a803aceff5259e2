package precheck

import (
	"fmt"

	"github.com/jbweber/stratctl/internal/failure"
	"github.com/jbweber/stratctl/internal/objects"
)

// CheckOppositeTier fails with an InUseOtherTier error if any requested
// device already belongs to otherTier of any pool. The error lists every
// conflicting pool and device.
func CheckOppositeTier(snap *objects.Snapshot, requested Set, otherTier objects.Tier) error {
	owned := poolsToBlockdevs(snap, requested, otherTier)
	if len(owned) == 0 {
		return nil
	}

	return &failure.InUseError{
		Tier:  otherTier.String(),
		Pools: breakdown(owned),
	}
}

// CheckSameTier classifies requested devices already in thisTier.
//
// Devices already in thisTier of poolName make the request a partial
// change or no change. If there are none, devices in thisTier of any
// other pool are an InUseSameTier error. poolName may be a pool that
// does not exist yet, as when creating one.
func CheckSameTier(poolName string, snap *objects.Snapshot, requested Set, thisTier objects.Tier) error {
	owned := poolsToBlockdevs(snap, requested, thisTier)

	ownedByCurrent := owned[poolName]
	delete(owned, poolName)

	if len(ownedByCurrent) > 0 {
		command := fmt.Sprintf("adding devices to the %s tier of pool %s", thisTier, poolName)
		return Classify(command, requested, ownedByCurrent)
	}

	if len(owned) > 0 {
		return &failure.InUseError{
			SameTier: true,
			Tier:     thisTier.String(),
			Pools:    breakdown(owned),
		}
	}

	return nil
}

// poolsToBlockdevs groups the requested devices found in tier by the
// name of the pool that owns them.
func poolsToBlockdevs(snap *objects.Snapshot, requested Set, tier objects.Tier) map[string]Set {
	poolNames := objects.PoolNames(snap)

	owned := make(map[string]Set)
	filter := objects.Filter{"Tier": tier.FilterValue()}
	for h, props := range objects.Blockdevs(filter).Search(snap) {
		bd := objects.NewBlockdev(h, props)
		if !requested.Contains(bd.Devnode) {
			continue
		}

		name, ok := poolNames[bd.Pool]
		if !ok {
			name = string(bd.Pool)
		}
		if owned[name] == nil {
			owned[name] = make(Set)
		}
		owned[name].Add(bd.Devnode)
	}

	return owned
}

func breakdown(owned map[string]Set) map[string][]string {
	out := make(map[string][]string, len(owned))
	for name, devs := range owned {
		out[name] = devs.Sorted()
	}
	return out
}
