package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/jbweber/stratctl/internal/failure"
	"github.com/jbweber/stratctl/internal/naming"
	"github.com/jbweber/stratctl/internal/objects"
	"github.com/jbweber/stratctl/internal/precheck"
	"github.com/jbweber/stratctl/internal/status"
	"github.com/jbweber/stratctl/internal/stratisd"
)

// Argument shapes for Manager.CreatePool and Manager.StartPool.
type (
	optionalUint64 struct {
		Valid bool
		Value uint64
	}
	optionalString struct {
		Valid bool
		Value string
	}
	optionalBool struct {
		Valid bool
		Value bool
	}
	optionalUint32 struct {
		Valid bool
		Value uint32
	}
	optionalFD struct {
		Valid bool
		Value dbus.UnixFDIndex
	}
	keyDescription struct {
		Slot        optionalUint32
		Description string
	}
	clevisInfo struct {
		Slot   optionalUint32
		Pin    string
		Config string
	}
	unlockMethod struct {
		Valid bool
		Value optionalUint32
	}
)

// Reply shapes.
type (
	createPoolResult struct {
		Changed bool
		Result  struct {
			Pool      dbus.ObjectPath
			Blockdevs []dbus.ObjectPath
		}
	}
	startPoolResult struct {
		Changed bool
		Result  struct {
			Pool        dbus.ObjectPath
			Blockdevs   []dbus.ObjectPath
			Filesystems []dbus.ObjectPath
		}
	}
	changedString struct {
		Changed bool
		Value   string
	}
	addDevicesResult struct {
		Changed bool
		Added   []dbus.ObjectPath
	}
)

// CreatePool creates a pool named name from devices and returns its
// handle. The name must not be in use and no device may already belong
// to any pool.
func (m *Manager) CreatePool(ctx context.Context, name string, devices []string, opts CreatePoolOptions) (objects.Handle, error) {
	devices, err := naming.AbsDevices(devices)
	if err != nil {
		return "", err
	}

	snap, err := m.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	if _, found, err := objects.Pools(objects.Filter{"Name": name}).RequireUniqueMatch(false).Search(snap); err != nil {
		return "", err
	} else if found {
		return "", &failure.NameConflictError{Category: string(objects.CategoryPool), Name: name}
	}

	requested := precheck.NewSet(devices...)
	if err := precheck.CheckOppositeTier(snap, requested, objects.TierCache); err != nil {
		return "", err
	}
	if err := precheck.CheckSameTier(name, snap, requested, objects.TierData); err != nil {
		return "", err
	}

	journal := optionalUint64{Valid: true}
	tagSpec := optionalString{Valid: true, Value: string(TagSpec0B)}
	superblock := optionalBool{Valid: true}
	if opts.Integrity != nil {
		if err := opts.Integrity.TagSpec.Validate(); err != nil {
			return "", err
		}
		journal.Value = opts.Integrity.JournalSize
		tagSpec.Value = string(opts.Integrity.TagSpec)
		superblock.Value = true
	}

	m.logger.Info("creating pool", "name", name, "devices", devices)

	var reply createPoolResult
	err = m.callManager(ctx, "CreatePool", &reply,
		name,
		requested.Sorted(),
		[]keyDescription{},
		[]clevisInfo{},
		journal,
		tagSpec,
		superblock,
	)
	if err != nil {
		return "", err
	}
	if !reply.Changed {
		return "", failure.Incoherent(
			"Expected to create the specified pool %s but stratisd reports that it did not actually create the pool", name)
	}

	pool := objects.Handle(reply.Result.Pool)
	if opts.NoOverprovision {
		if err := m.bus.SetProperty(ctx, pool, stratisd.PoolInterface, "Overprovisioning", false); err != nil {
			return pool, fmt.Errorf("failed to disable overprovisioning: %w", err)
		}
	}

	return pool, nil
}

// DestroyPool destroys the pool selected by sel.
func (m *Manager) DestroyPool(ctx context.Context, sel PoolSelector) error {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return err
	}

	pool, err := resolvePool(snap, sel)
	if err != nil {
		return err
	}

	m.logger.Info("destroying pool", "pool", pool.Name, "path", pool.Handle)

	var reply changedString
	if err := m.callManager(ctx, "DestroyPool", &reply, dbus.ObjectPath(pool.Handle)); err != nil {
		return err
	}
	if !reply.Changed {
		return failure.Incoherent(
			"Expected to destroy the specified pool %s but stratisd reports that it did not actually destroy the pool", pool.Name)
	}
	return nil
}

// RenamePool renames the pool named current to newName.
func (m *Manager) RenamePool(ctx context.Context, current, newName string) error {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return err
	}

	pool, err := resolvePool(snap, PoolByName(current))
	if err != nil {
		return err
	}

	var reply changedString
	if err := m.call(ctx, pool.Handle, stratisd.PoolInterface, "SetName", &reply, newName); err != nil {
		return err
	}
	if !reply.Changed {
		return failure.NewNoChangeError("rename", newName)
	}
	return nil
}

// AddDataDevices adds devices to the data tier of the named pool and
// returns the handles of the new block devices.
func (m *Manager) AddDataDevices(ctx context.Context, poolName string, devices []string) ([]objects.Handle, error) {
	return m.addDevices(ctx, poolName, devices, objects.TierData, "AddDataDevs")
}

// AddCacheDevices adds devices to the cache tier of the named pool.
func (m *Manager) AddCacheDevices(ctx context.Context, poolName string, devices []string) ([]objects.Handle, error) {
	return m.addDevices(ctx, poolName, devices, objects.TierCache, "AddCacheDevs")
}

// InitCache initializes the cache tier of the named pool with devices.
// It fails with a NoPropertyChangeError if the pool already has a cache.
func (m *Manager) InitCache(ctx context.Context, poolName string, devices []string) ([]objects.Handle, error) {
	devices, err := naming.AbsDevices(devices)
	if err != nil {
		return nil, err
	}

	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := resolvePool(snap, PoolByName(poolName))
	if err != nil {
		return nil, err
	}
	if pool.HasCache {
		return nil, &failure.NoPropertyChangeError{Message: "Pool already has an initialized cache"}
	}

	requested := precheck.NewSet(devices...)
	if err := precheck.CheckOppositeTier(snap, requested, objects.TierData); err != nil {
		return nil, err
	}
	if err := precheck.CheckSameTier(poolName, snap, requested, objects.TierCache); err != nil {
		return nil, err
	}

	return m.callAddDevices(ctx, pool, requested, objects.TierCache, "InitCache")
}

func (m *Manager) addDevices(ctx context.Context, poolName string, devices []string, tier objects.Tier, method string) ([]objects.Handle, error) {
	devices, err := naming.AbsDevices(devices)
	if err != nil {
		return nil, err
	}

	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	requested := precheck.NewSet(devices...)
	if err := precheck.CheckOppositeTier(snap, requested, tier.Opposite()); err != nil {
		return nil, err
	}
	if err := precheck.CheckSameTier(poolName, snap, requested, tier); err != nil {
		return nil, err
	}

	pool, err := resolvePool(snap, PoolByName(poolName))
	if err != nil {
		return nil, err
	}

	return m.callAddDevices(ctx, pool, requested, tier, method)
}

func (m *Manager) callAddDevices(ctx context.Context, pool objects.Pool, requested precheck.Set, tier objects.Tier, method string) ([]objects.Handle, error) {
	m.logger.Info("adding devices", "pool", pool.Name, "tier", tier, "devices", requested.Sorted())

	var reply addDevicesResult
	if err := m.call(ctx, pool.Handle, stratisd.PoolInterface, method, &reply, requested.Sorted()); err != nil {
		return nil, err
	}

	added := make([]objects.Handle, 0, len(reply.Added))
	for _, p := range reply.Added {
		added = append(added, objects.Handle(p))
	}

	if !reply.Changed || len(added) < len(requested) {
		return nil, failure.Incoherent(
			"Expected to add the specified blockdevs to the %s tier of pool %s but stratisd reports that it did not actually add some or all of the blockdevs requested; devices added: (%s), devices requested: (%s)",
			strings.ToLower(tier.String()), pool.Name, m.addedDevnodes(ctx, added), strings.Join(requested.Sorted(), ", "))
	}
	return added, nil
}

// addedDevnodes looks up the device nodes of newly added block devices
// for an error message.
func (m *Manager) addedDevnodes(ctx context.Context, added []objects.Handle) string {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return ""
	}

	var devnodes []string
	for _, h := range added {
		if props, ok := snap.Properties(h); ok {
			devnodes = append(devnodes, props.String("Devnode"))
		}
	}
	sort.Strings(devnodes)
	return strings.Join(devnodes, ", ")
}

// StopPool stops the pool selected by sel.
func (m *Manager) StopPool(ctx context.Context, sel PoolSelector) error {
	id, idType := sel.idArgs()

	m.logger.Info("stopping pool", "id", id, "idType", idType)

	var reply changedString
	if err := m.callManager(ctx, "StopPool", &reply, id, idType); err != nil {
		return err
	}
	if !reply.Changed {
		return failure.NewNoChangeError("stop", sel.String())
	}
	return nil
}

// StartPool starts the stopped pool selected by sel. Encrypted pools
// are not unlocked.
func (m *Manager) StartPool(ctx context.Context, sel PoolSelector) error {
	id, idType := sel.idArgs()

	m.logger.Info("starting pool", "id", id, "idType", idType)

	var reply startPoolResult
	err := m.callManager(ctx, "StartPool", &reply,
		id,
		idType,
		unlockMethod{},
		optionalFD{},
	)
	if err != nil {
		return err
	}
	if !reply.Changed {
		return failure.NewNoChangeError("start", sel.String())
	}
	return nil
}

// ExtendData grows the pool into the extra space of devices that have
// increased in size. With no deviceUUIDs every such device is grown;
// otherwise only the given devices are, and all of them must be
// expandable. It returns the UUIDs of the grown devices.
func (m *Manager) ExtendData(ctx context.Context, poolName string, deviceUUIDs []uuid.UUID) ([]string, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := resolvePool(snap, PoolByName(poolName))
	if err != nil {
		return nil, err
	}

	devices := poolBlockdevs(snap, pool.Handle)

	expand, err := devicesToExpand(devices, deviceUUIDs)
	if err != nil {
		return nil, err
	}
	if len(expand) == 0 {
		return nil, &failure.NoPropertyChangeError{Message: "No devices in the pool have changed size"}
	}

	grown := make([]string, 0, len(expand))
	for _, bd := range expand {
		m.logger.Info("growing device", "pool", pool.Name, "device", bd.Devnode, "uuid", bd.UUID)

		var changed bool
		if err := m.call(ctx, pool.Handle, stratisd.PoolInterface, "GrowPhysicalDevice", &changed, bd.UUID); err != nil {
			return grown, err
		}
		if !changed {
			return grown, failure.Incoherent(
				"Actual size of device with UUID %s appeared to be different from in-use size but no action was taken on the device",
				naming.FormatUUID(bd.UUID, false))
		}
		grown = append(grown, bd.UUID)
	}
	return grown, nil
}

func expandable(bd objects.Blockdev) bool {
	return bd.NewPhysicalSize != nil && *bd.NewPhysicalSize > bd.TotalPhysicalSize
}

func devicesToExpand(devices []objects.Blockdev, deviceUUIDs []uuid.UUID) ([]objects.Blockdev, error) {
	if len(deviceUUIDs) == 0 {
		var out []objects.Blockdev
		for _, bd := range devices {
			if expandable(bd) {
				out = append(out, bd)
			}
		}
		return out, nil
	}

	wanted := make(map[string]bool, len(deviceUUIDs))
	for _, u := range deviceUUIDs {
		wanted[naming.UUIDFilterValue(u)] = true
	}

	var selected []objects.Blockdev
	for _, bd := range devices {
		if wanted[bd.UUID] {
			selected = append(selected, bd)
			delete(wanted, bd.UUID)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for u := range wanted {
			missing = append(missing, naming.FormatUUID(u, false))
		}
		sort.Strings(missing)
		return nil, &failure.NotFoundError{
			Category: string(objects.CategoryBlockdev),
			Filter:   map[string]string{"Uuid": strings.Join(missing, ", ")},
		}
	}

	var grow, keep []string
	for _, bd := range selected {
		if expandable(bd) {
			grow = append(grow, naming.FormatUUID(bd.UUID, false))
		} else {
			keep = append(keep, naming.FormatUUID(bd.UUID, false))
		}
	}
	if len(keep) > 0 {
		if len(grow) == 0 {
			return nil, failure.NewNoChangeError("extend-data", keep...)
		}
		return nil, failure.NewPartialChangeError("extend-data", grow, keep)
	}
	return selected, nil
}

// SetFsLimit sets the maximum number of filesystems in the named pool.
func (m *Manager) SetFsLimit(ctx context.Context, poolName string, limit uint64) error {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return err
	}

	pool, err := resolvePool(snap, PoolByName(poolName))
	if err != nil {
		return err
	}
	if pool.FsLimit == limit {
		return &failure.NoPropertyChangeError{
			Message: fmt.Sprintf("Pool %s already has a filesystem limit of %d", pool.Name, limit),
		}
	}

	return m.bus.SetProperty(ctx, pool.Handle, stratisd.PoolInterface, "FsLimit", limit)
}

// SetOverprovisioning turns overprovisioning of the named pool on or off.
func (m *Manager) SetOverprovisioning(ctx context.Context, poolName string, enabled bool) error {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return err
	}

	pool, err := resolvePool(snap, PoolByName(poolName))
	if err != nil {
		return err
	}
	if pool.Overprovisioning == enabled {
		mode := "disabled"
		if enabled {
			mode = "enabled"
		}
		return &failure.NoPropertyChangeError{
			Message: fmt.Sprintf("Pool %s already has overprovisioning %s", pool.Name, mode),
		}
	}

	return m.bus.SetProperty(ctx, pool.Handle, stratisd.PoolInterface, "Overprovisioning", enabled)
}

// ListPools returns every pool, sorted by name.
func (m *Manager) ListPools(ctx context.Context) ([]PoolInfo, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	devices := allBlockdevs(snap)

	var infos []PoolInfo
	for h, props := range objects.Pools(nil).Search(snap) {
		infos = append(infos, poolInfo(objects.NewPool(h, props), devices))
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// GetPool returns the pool selected by sel.
func (m *Manager) GetPool(ctx context.Context, sel PoolSelector) (PoolInfo, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return PoolInfo{}, err
	}

	pool, err := resolvePool(snap, sel)
	if err != nil {
		return PoolInfo{}, err
	}
	return poolInfo(pool, poolBlockdevs(snap, pool.Handle)), nil
}

func poolInfo(pool objects.Pool, devices []objects.Blockdev) PoolInfo {
	var codes []string
	for _, a := range status.PoolAlerts(pool, devices) {
		codes = append(codes, a.Code)
	}

	return PoolInfo{
		Name:             pool.Name,
		UUID:             pool.UUID,
		TotalSize:        pool.TotalPhysicalSize,
		UsedSize:         pool.TotalPhysicalUsed,
		HasCache:         pool.HasCache,
		Encrypted:        pool.Encrypted,
		Overprovisioning: pool.Overprovisioning,
		FsLimit:          pool.FsLimit,
		AvailableActions: pool.AvailableActions,
		NoAllocSpace:     pool.NoAllocSpace,
		Alerts:           codes,
	}
}

// poolBlockdevs returns the block devices of pool, sorted by device node.
func poolBlockdevs(snap *objects.Snapshot, pool objects.Handle) []objects.Blockdev {
	var devices []objects.Blockdev
	for h, props := range objects.Blockdevs(objects.Filter{"Pool": string(pool)}).Search(snap) {
		devices = append(devices, objects.NewBlockdev(h, props))
	}
	slices.SortFunc(devices, func(a, b objects.Blockdev) int { return strings.Compare(a.Devnode, b.Devnode) })
	return devices
}

func allBlockdevs(snap *objects.Snapshot) []objects.Blockdev {
	var devices []objects.Blockdev
	for h, props := range objects.Blockdevs(nil).Search(snap) {
		devices = append(devices, objects.NewBlockdev(h, props))
	}
	return devices
}
