package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jbweber/stratctl/internal/logging"
	"github.com/jbweber/stratctl/internal/objects"
	"github.com/jbweber/stratctl/internal/stratisd"
)

// Bus is the interface for the daemon operations the manager needs.
// This allows for dependency injection and testing.
type Bus interface {
	GetManagedObjects(ctx context.Context) (objects.Raw, error)
	Call(ctx context.Context, path objects.Handle, iface, method string, args ...any) ([]any, error)
	GetProperty(ctx context.Context, path objects.Handle, iface, name string) (any, error)
	SetProperty(ctx context.Context, path objects.Handle, iface, name string, value any) error
}

// Manager coordinates pool, filesystem, and block device operations.
// Every operation fetches its own snapshot; nothing is cached between
// operations.
type Manager struct {
	bus    Bus
	codes  stratisd.ErrorTable
	logger *slog.Logger
}

// NewManager creates a new storage manager. codes decodes the return
// codes of method replies.
func NewManager(bus Bus, codes stratisd.ErrorTable, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		bus:    bus,
		codes:  codes,
		logger: logger,
	}
}

// Snapshot fetches and validates the daemon's managed objects.
func (m *Manager) Snapshot(ctx context.Context) (*objects.Snapshot, error) {
	raw, err := m.bus.GetManagedObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get managed objects: %w", err)
	}
	return objects.NewSnapshot(raw, stratisd.Schema)
}

// call invokes a method whose reply is (result, return code, message)
// and decodes the result into result. A nil result is for methods
// that reply with only (return code, message).
func (m *Manager) call(ctx context.Context, path objects.Handle, iface, method string, result any, args ...any) error {
	body, err := m.bus.Call(ctx, path, iface, method, args...)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}

	var (
		rc      uint16
		message string
	)
	if result == nil {
		err = dbus.Store(body, &rc, &message)
	} else {
		err = dbus.Store(body, result, &rc, &message)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s reply: %w", method, err)
	}

	if err := m.codes.Check(rc, message); err != nil {
		m.logger.Debug("method failed", "method", method, "path", path, "rc", rc, "message", message)
		return err
	}
	return nil
}

// callManager invokes a method on the top object.
func (m *Manager) callManager(ctx context.Context, method string, result any, args ...any) error {
	return m.call(ctx, stratisd.TopObject, stratisd.ManagerInterface, method, result, args...)
}

// Version returns the daemon version.
func (m *Manager) Version(ctx context.Context) (string, error) {
	v, err := m.bus.GetProperty(ctx, stratisd.TopObject, stratisd.ManagerInterface, "Version")
	if err != nil {
		return "", fmt.Errorf("failed to get daemon version: %w", err)
	}
	version, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("daemon version has unexpected type %T", v)
	}
	return version, nil
}

// CheckVersion fails with a VersionError when the daemon version is
// outside the supported range.
func (m *Manager) CheckVersion(ctx context.Context) error {
	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	return stratisd.CheckVersion(version)
}

// RefreshState asks the daemon to reread its view of the world.
func (m *Manager) RefreshState(ctx context.Context) error {
	return m.callManager(ctx, "RefreshState", nil)
}

// ObjectPath returns the handle of the single object of category
// matching filter.
func (m *Manager) ObjectPath(ctx context.Context, category objects.Category, filter objects.Filter) (objects.Handle, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	var q objects.Query
	switch category {
	case objects.CategoryPool:
		q = objects.Pools(filter)
	case objects.CategoryFilesystem:
		q = objects.Filesystems(filter)
	case objects.CategoryBlockdev:
		q = objects.Blockdevs(filter)
	default:
		return "", fmt.Errorf("unknown object category %q", category)
	}

	obj, _, err := q.RequireUniqueMatch(true).Search(snap)
	if err != nil {
		return "", err
	}
	return obj.Handle, nil
}

// resolvePool finds the single pool matching sel.
func resolvePool(snap *objects.Snapshot, sel PoolSelector) (objects.Pool, error) {
	obj, _, err := objects.Pools(sel.Filter()).RequireUniqueMatch(true).Search(snap)
	if err != nil {
		return objects.Pool{}, err
	}
	return objects.NewPool(obj.Handle, obj.Properties), nil
}

// resolveFilesystem finds the single filesystem named name in pool.
func resolveFilesystem(snap *objects.Snapshot, pool objects.Handle, name string) (objects.Filesystem, error) {
	filter := objects.Filter{"Name": name, "Pool": string(pool)}
	obj, _, err := objects.Filesystems(filter).RequireUniqueMatch(true).Search(snap)
	if err != nil {
		return objects.Filesystem{}, err
	}
	return objects.NewFilesystem(obj.Handle, obj.Properties), nil
}
