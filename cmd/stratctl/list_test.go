package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/stratctl/internal/objects"
	"github.com/jbweber/stratctl/internal/output"
	"github.com/jbweber/stratctl/internal/storage"
	"github.com/jbweber/stratctl/internal/stratisd"
)

// propertyBus serves manager properties and an empty object graph.
type propertyBus struct {
	properties map[string]any
}

func (b propertyBus) GetManagedObjects(ctx context.Context) (objects.Raw, error) {
	return objects.Raw{}, nil
}

func (b propertyBus) Call(ctx context.Context, path objects.Handle, iface, method string, args ...any) ([]any, error) {
	return nil, fmt.Errorf("unexpected call to %s", method)
}

func (b propertyBus) GetProperty(ctx context.Context, path objects.Handle, iface, name string) (any, error) {
	v, ok := b.properties[iface+"."+name]
	if !ok {
		return nil, fmt.Errorf("no such property %s", name)
	}
	return v, nil
}

func (b propertyBus) SetProperty(ctx context.Context, path objects.Handle, iface, name string, value any) error {
	return fmt.Errorf("unexpected write to %s", name)
}

func TestListPools_Stopped(t *testing.T) {
	bus := propertyBus{properties: map[string]any{
		stratisd.ManagerInterface + ".StoppedPools": map[string]any{
			"0123456789abcdef0123456789abcdef": map[string]any{
				"name": "p1",
				"devs": []any{map[string]any{"uuid": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "devnode": "/dev/sdb"}},
			},
		},
	}}
	mgr := storage.NewManager(bus, stratisd.NewErrorTable(), nil)
	f := &output.TableFormatter{NoHeaders: true}
	ctx := context.Background()

	out, err := listPools(ctx, mgr, f, storage.PoolSelector{}, true)
	require.NoError(t, err)
	assert.Contains(t, out, "p1")
	assert.Contains(t, out, "01234567-89ab-cdef-0123-456789abcdef")

	out, err = listPools(ctx, mgr, f, storage.PoolByName("p1"), true)
	require.NoError(t, err)
	assert.Contains(t, out, "Devices:\naaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa  /dev/sdb\n")

	_, err = listPools(ctx, mgr, f, storage.PoolByName("p2"), true)
	assert.ErrorContains(t, err, "failed to get stopped pool")

	out, err = listPools(ctx, mgr, f, storage.PoolSelector{}, false)
	require.NoError(t, err)
	assert.NotContains(t, out, "p1", "running pools do not include stopped ones")
}

func TestListPools_NameAndUUID(t *testing.T) {
	setFlag(t, &poolUUID, "11111111-1111-1111-1111-111111111111")
	sel, err := poolSelector([]string{"p1"})
	require.NoError(t, err)

	mgr := storage.NewManager(propertyBus{}, stratisd.NewErrorTable(), nil)
	_, err = listPools(context.Background(), mgr, &output.TableFormatter{}, sel, true)
	var usage usageError
	assert.True(t, errors.As(err, &usage), "error = %v", err)
}
