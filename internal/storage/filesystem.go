package storage

import (
	"context"
	"sort"
	"strconv"

	"github.com/godbus/dbus/v5"

	"github.com/jbweber/stratctl/internal/failure"
	"github.com/jbweber/stratctl/internal/objects"
	"github.com/jbweber/stratctl/internal/precheck"
	"github.com/jbweber/stratctl/internal/stratisd"
)

type (
	filesystemSpec struct {
		Name      string
		Size      optionalString
		SizeLimit optionalString
	}
	createdFilesystem struct {
		Path dbus.ObjectPath
		Name string
	}
	createFilesystemsResult struct {
		Changed bool
		Created []createdFilesystem
	}
	destroyFilesystemsResult struct {
		Changed   bool
		Destroyed []string
	}
	snapshotResult struct {
		Changed  bool
		Snapshot dbus.ObjectPath
	}
)

func optionalSize(size *uint64) optionalString {
	if size == nil {
		return optionalString{}
	}
	return optionalString{Valid: true, Value: strconv.FormatUint(*size, 10)}
}

// CreateFilesystems creates the named filesystems in the named pool and
// returns their handles. Names that already exist in the pool make the
// request a partial change, or no change if every name exists.
func (m *Manager) CreateFilesystems(ctx context.Context, poolName string, names []string, opts FilesystemOptions) ([]objects.Handle, error) {
	if err := opts.Validate(); err != nil {
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

	requested := precheck.NewSet(names...)
	existing := filesystemNames(snap, pool.Handle).Intersection(requested)
	if err := precheck.Classify("create", requested, existing); err != nil {
		return nil, err
	}

	specs := make([]filesystemSpec, 0, len(requested))
	for _, name := range requested.Sorted() {
		specs = append(specs, filesystemSpec{
			Name:      name,
			Size:      optionalSize(opts.Size),
			SizeLimit: optionalSize(opts.SizeLimit),
		})
	}

	m.logger.Info("creating filesystems", "pool", pool.Name, "names", requested.Sorted())

	var reply createFilesystemsResult
	if err := m.call(ctx, pool.Handle, stratisd.PoolInterface, "CreateFilesystems", &reply, specs); err != nil {
		return nil, err
	}
	if !reply.Changed || len(reply.Created) < len(requested) {
		return nil, failure.Incoherent(
			"Expected to create the specified filesystems in pool %s but stratisd reports that it did not actually create some or all of the filesystems requested",
			pool.Name)
	}

	created := make([]objects.Handle, 0, len(reply.Created))
	for _, fs := range reply.Created {
		created = append(created, objects.Handle(fs.Path))
	}
	return created, nil
}

// DestroyFilesystems destroys the named filesystems in the named pool.
// Names that do not exist make the request a partial change, or no
// change if none exist.
func (m *Manager) DestroyFilesystems(ctx context.Context, poolName string, names []string) error {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return err
	}

	pool, err := resolvePool(snap, PoolByName(poolName))
	if err != nil {
		return err
	}

	requested := precheck.NewSet(names...)
	handles := make(map[string]objects.Handle)
	for h, props := range objects.Filesystems(objects.Filter{"Pool": string(pool.Handle)}).Search(snap) {
		handles[props.String("Name")] = h
	}

	absent := precheck.NewSet()
	for name := range requested {
		if _, ok := handles[name]; !ok {
			absent.Add(name)
		}
	}
	if err := precheck.Classify("destroy", requested, absent); err != nil {
		return err
	}

	paths := make([]dbus.ObjectPath, 0, len(requested))
	for _, name := range requested.Sorted() {
		paths = append(paths, dbus.ObjectPath(handles[name]))
	}

	m.logger.Info("destroying filesystems", "pool", pool.Name, "names", requested.Sorted())

	var reply destroyFilesystemsResult
	if err := m.call(ctx, pool.Handle, stratisd.PoolInterface, "DestroyFilesystems", &reply, paths); err != nil {
		return err
	}
	if !reply.Changed || len(reply.Destroyed) < len(requested) {
		return failure.Incoherent(
			"Expected to destroy the specified filesystems in pool %s but stratisd reports that it did not actually destroy some or all of the filesystems requested",
			pool.Name)
	}
	return nil
}

// SnapshotFilesystem snapshots origin in the named pool as snapshotName
// and returns the snapshot's handle.
func (m *Manager) SnapshotFilesystem(ctx context.Context, poolName, origin, snapshotName string) (objects.Handle, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	pool, err := resolvePool(snap, PoolByName(poolName))
	if err != nil {
		return "", err
	}

	fs, err := resolveFilesystem(snap, pool.Handle, origin)
	if err != nil {
		return "", err
	}

	var reply snapshotResult
	err = m.call(ctx, pool.Handle, stratisd.PoolInterface, "SnapshotFilesystem", &reply,
		dbus.ObjectPath(fs.Handle), snapshotName)
	if err != nil {
		return "", err
	}
	if !reply.Changed {
		return "", failure.Incoherent(
			"Expected to create the specified snapshot %s of filesystem %s but stratisd reports that it did not actually create the snapshot",
			snapshotName, origin)
	}
	return objects.Handle(reply.Snapshot), nil
}

// RenameFilesystem renames filesystem current in the named pool.
func (m *Manager) RenameFilesystem(ctx context.Context, poolName, current, newName string) error {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return err
	}

	pool, err := resolvePool(snap, PoolByName(poolName))
	if err != nil {
		return err
	}

	fs, err := resolveFilesystem(snap, pool.Handle, current)
	if err != nil {
		return err
	}

	var reply changedString
	if err := m.call(ctx, fs.Handle, stratisd.FilesystemInterface, "SetName", &reply, newName); err != nil {
		return err
	}
	if !reply.Changed {
		return failure.NewNoChangeError("rename", newName)
	}
	return nil
}

// ListFilesystems returns filesystems sorted by pool and name. An empty
// poolName lists every pool; a non-empty name selects one filesystem.
func (m *Manager) ListFilesystems(ctx context.Context, poolName, name string) ([]FilesystemInfo, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	filter := objects.Filter{}
	if poolName != "" {
		pool, err := resolvePool(snap, PoolByName(poolName))
		if err != nil {
			return nil, err
		}
		filter["Pool"] = string(pool.Handle)
	}

	if name != "" {
		filter["Name"] = name
		if _, _, err := objects.Filesystems(filter).RequireUniqueMatch(true).Search(snap); err != nil {
			return nil, err
		}
	}

	poolNames := objects.PoolNames(snap)
	names := make(map[objects.Handle]string)
	for h, props := range objects.Filesystems(nil).Search(snap) {
		names[h] = props.String("Name")
	}

	var infos []FilesystemInfo
	for h, props := range objects.Filesystems(filter).Search(snap) {
		fs := objects.NewFilesystem(h, props)
		info := FilesystemInfo{
			Pool:      poolNames[fs.Pool],
			Name:      fs.Name,
			UUID:      fs.UUID,
			Devnode:   fs.Devnode,
			Created:   fs.Created,
			Size:      fs.Size,
			Used:      fs.Used,
			SizeLimit: fs.SizeLimit,
		}
		if fs.Origin != nil {
			info.Origin = names[*fs.Origin]
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Pool != infos[j].Pool {
			return infos[i].Pool < infos[j].Pool
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// filesystemNames returns the names of the filesystems in pool.
func filesystemNames(snap *objects.Snapshot, pool objects.Handle) precheck.Set {
	names := precheck.NewSet()
	for _, props := range objects.Filesystems(objects.Filter{"Pool": string(pool)}).Search(snap) {
		names.Add(props.String("Name"))
	}
	return names
}
