package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/jbweber/stratctl/internal/failure"
	"github.com/jbweber/stratctl/internal/naming"
	"github.com/jbweber/stratctl/internal/stratisd"
)

// ListStoppedPools returns the pools stratisd has found but not started,
// sorted by name and then by UUID.
func (m *Manager) ListStoppedPools(ctx context.Context) ([]StoppedPoolInfo, error) {
	v, err := m.bus.GetProperty(ctx, stratisd.TopObject, stratisd.ManagerInterface, "StoppedPools")
	if err != nil {
		return nil, fmt.Errorf("failed to get stopped pools: %w", err)
	}

	entries, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("stopped pools have unexpected type %T", v)
	}

	infos := make([]StoppedPoolInfo, 0, len(entries))
	for poolUUID, entry := range entries {
		info, err := stoppedPoolInfo(poolUUID, entry)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].UUID < infos[j].UUID
	})
	return infos, nil
}

// GetStoppedPool returns the stopped pool selected by sel.
func (m *Manager) GetStoppedPool(ctx context.Context, sel PoolSelector) (StoppedPoolInfo, error) {
	if err := sel.Validate(); err != nil {
		return StoppedPoolInfo{}, err
	}

	infos, err := m.ListStoppedPools(ctx)
	if err != nil {
		return StoppedPoolInfo{}, err
	}

	for _, info := range infos {
		if sel.UUID != nil && info.UUID == naming.UUIDFilterValue(*sel.UUID) {
			return info, nil
		}
		if sel.UUID == nil && info.Name != "" && info.Name == sel.Name {
			return info, nil
		}
	}

	return StoppedPoolInfo{}, &failure.NotFoundError{Category: "stopped pool", Filter: sel.Filter()}
}

// stoppedPoolInfo decodes one entry of the StoppedPools property. The
// name is absent when stratisd could not read the pool metadata. An
// entry carrying key_description or clevis_info is encrypted.
func stoppedPoolInfo(poolUUID string, entry any) (StoppedPoolInfo, error) {
	props, ok := entry.(map[string]any)
	if !ok {
		return StoppedPoolInfo{}, fmt.Errorf("stopped pool %s has unexpected type %T", poolUUID, entry)
	}

	info := StoppedPoolInfo{UUID: poolUUID, Devices: []StoppedDeviceInfo{}}
	if name, ok := props["name"].(string); ok {
		info.Name = name
	}
	_, hasKey := props["key_description"]
	_, hasClevis := props["clevis_info"]
	info.Encrypted = hasKey || hasClevis

	devs, _ := props["devs"].([]any)
	for _, d := range devs {
		dev, ok := d.(map[string]any)
		if !ok {
			return StoppedPoolInfo{}, fmt.Errorf("device of stopped pool %s has unexpected type %T", poolUUID, d)
		}
		uuid, _ := dev["uuid"].(string)
		devnode, _ := dev["devnode"].(string)
		info.Devices = append(info.Devices, StoppedDeviceInfo{UUID: uuid, Devnode: devnode})
	}
	sort.Slice(info.Devices, func(i, j int) bool { return info.Devices[i].Devnode < info.Devices[j].Devnode })

	return info, nil
}
