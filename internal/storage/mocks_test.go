package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/jbweber/stratctl/internal/objects"
	"github.com/jbweber/stratctl/internal/stratisd"
)

// fakeBus is an in-memory implementation of Bus for testing. Method
// replies are scripted per method name in the shape godbus decodes
// them: structs as []any, object paths as dbus.ObjectPath.
type fakeBus struct {
	raw        objects.Raw
	replies    map[string][]any
	properties map[string]any // interface + "." + name -> value

	snapshotErr error
	callErr     error

	calls  []fakeCall
	writes []fakeWrite
}

type fakeCall struct {
	path   objects.Handle
	iface  string
	method string
	args   []any
}

type fakeWrite struct {
	path  objects.Handle
	name  string
	value any
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		raw:        make(objects.Raw),
		replies:    make(map[string][]any),
		properties: make(map[string]any),
	}
}

func (f *fakeBus) GetManagedObjects(ctx context.Context) (objects.Raw, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.raw, nil
}

func (f *fakeBus) Call(ctx context.Context, path objects.Handle, iface, method string, args ...any) ([]any, error) {
	f.calls = append(f.calls, fakeCall{path: path, iface: iface, method: method, args: args})
	if f.callErr != nil {
		return nil, f.callErr
	}
	body, ok := f.replies[method]
	if !ok {
		return nil, fmt.Errorf("no reply scripted for %s", method)
	}
	return body, nil
}

func (f *fakeBus) GetProperty(ctx context.Context, path objects.Handle, iface, name string) (any, error) {
	v, ok := f.properties[iface+"."+name]
	if !ok {
		return nil, fmt.Errorf("no such property %s", name)
	}
	return v, nil
}

func (f *fakeBus) SetProperty(ctx context.Context, path objects.Handle, iface, name string, value any) error {
	f.writes = append(f.writes, fakeWrite{path: path, name: name, value: value})
	return nil
}

// methods returns the names of the methods called, in order.
func (f *fakeBus) methods() []string {
	var names []string
	for _, c := range f.calls {
		names = append(names, c.method)
	}
	return names
}

func (f *fakeBus) lastCall(t *testing.T) fakeCall {
	t.Helper()
	if len(f.calls) == 0 {
		t.Fatal("no calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeBus) reply(method string, result any) {
	f.replies[method] = []any{result, uint16(stratisd.OK), ""}
}

func (f *fakeBus) replyError(method string, result any, rc stratisd.ReturnCode, message string) {
	f.replies[method] = []any{result, uint16(rc), message}
}

func (f *fakeBus) addPool(path objects.Handle, name, uuid string, overrides objects.Properties) {
	props := objects.Properties{
		"Name":              name,
		"Uuid":              uuid,
		"HasCache":          false,
		"Encrypted":         false,
		"Overprovisioning":  true,
		"NoAllocSpace":      false,
		"FsLimit":           uint64(100),
		"TotalPhysicalSize": "1000",
		"TotalPhysicalUsed": []any{true, "400"},
		"AvailableActions":  "fully_operational",
	}
	for k, v := range overrides {
		props[k] = v
	}
	f.raw[path] = map[objects.Category]objects.Properties{objects.CategoryPool: props}
}

func (f *fakeBus) addBlockdev(path objects.Handle, devnode string, pool objects.Handle, tier objects.Tier, uuid string, overrides objects.Properties) {
	props := objects.Properties{
		"Devnode":           devnode,
		"PhysicalPath":      devnode,
		"Pool":              pool,
		"Tier":              uint16(tier),
		"Uuid":              uuid,
		"TotalPhysicalSize": "500",
		"NewPhysicalSize":   []any{false, ""},
	}
	for k, v := range overrides {
		props[k] = v
	}
	f.raw[path] = map[objects.Category]objects.Properties{objects.CategoryBlockdev: props}
}

func (f *fakeBus) addFilesystem(path objects.Handle, name string, pool objects.Handle, uuid string, overrides objects.Properties) {
	props := objects.Properties{
		"Name":      name,
		"Uuid":      uuid,
		"Pool":      pool,
		"Devnode":   "/dev/stratis/" + name,
		"Created":   "2024-05-01T10:00:00+00:00",
		"Size":      "1073741824",
		"Used":      []any{true, "1048576"},
		"SizeLimit": []any{false, ""},
		"Origin":    []any{false, "/"},
	}
	for k, v := range overrides {
		props[k] = v
	}
	f.raw[path] = map[objects.Category]objects.Properties{objects.CategoryFilesystem: props}
}

// standardBus returns a bus with two pools: p1 owns /dev/sda (data) and
// /dev/sdb (cache) and has filesystem fs1; p2 owns /dev/sdc (data).
func standardBus() *fakeBus {
	f := newFakeBus()
	f.addPool("/p/1", "p1", "11111111111111111111111111111111", objects.Properties{"HasCache": true})
	f.addPool("/p/2", "p2", "22222222222222222222222222222222", nil)
	f.addBlockdev("/b/1", "/dev/sda", "/p/1", objects.TierData, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", nil)
	f.addBlockdev("/b/2", "/dev/sdb", "/p/1", objects.TierCache, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", nil)
	f.addBlockdev("/b/3", "/dev/sdc", "/p/2", objects.TierData, "cccccccccccccccccccccccccccccccc", nil)
	f.addFilesystem("/f/1", "fs1", "/p/1", "ffffffffffffffffffffffffffffffff", nil)
	return f
}

func newTestManager(bus *fakeBus) *Manager {
	return NewManager(bus, stratisd.NewErrorTable(), nil)
}
