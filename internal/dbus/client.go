package dbus

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jbweber/stratctl/internal/logging"
	"github.com/jbweber/stratctl/internal/objects"
	"github.com/jbweber/stratctl/internal/stratisd"
)

// DefaultTimeout is used when Options.Timeout is zero.
const DefaultTimeout = 120 * time.Second

// Options configures a connection.
type Options struct {
	// Bus is "system", "session" or a D-Bus address. Empty means system.
	Bus string
	// Timeout bounds each method call. Zero means DefaultTimeout and a
	// negative value means no timeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client wraps a godbus connection to stratisd.
type Client struct {
	conn    *dbus.Conn
	timeout time.Duration
	logger  *slog.Logger
}

// Connect opens a connection to the bus stratisd is on.
// It returns a Client that must be closed via Close() when done.
func Connect(opts Options) (*Client, error) {
	return ConnectWithContext(context.Background(), opts)
}

// ConnectWithContext establishes a connection with context support for cancellation.
func ConnectWithContext(ctx context.Context, opts Options) (*Client, error) {
	opts = withDefaults(opts)

	var (
		conn *dbus.Conn
		err  error
	)
	switch opts.Bus {
	case "system":
		conn, err = dbus.ConnectSystemBus(dbus.WithContext(ctx))
	case "session":
		conn, err = dbus.ConnectSessionBus(dbus.WithContext(ctx))
	default:
		conn, err = dbus.Connect(opts.Bus, dbus.WithContext(ctx))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s bus: %w", opts.Bus, err)
	}

	return &Client{conn: conn, timeout: opts.Timeout, logger: opts.Logger}, nil
}

func withDefaults(opts Options) Options {
	if opts.Bus == "" {
		opts.Bus = "system"
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return opts
}

// Close closes the bus connection.
// It is safe to call Close multiple times.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close bus connection: %w", err)
	}

	return nil
}

// Ping verifies that stratisd answers on the bus.
func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("client not connected")
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	obj := c.conn.Object(stratisd.Service, dbus.ObjectPath(stratisd.TopObject))
	if err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Peer.Ping", 0).Err; err != nil {
		return fmt.Errorf("stratisd did not answer ping: %w", err)
	}

	return nil
}

// GetManagedObjects fetches every object stratisd publishes.
func (c *Client) GetManagedObjects(ctx context.Context) (objects.Raw, error) {
	var reply map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	body, err := c.Call(ctx, stratisd.TopObject, stratisd.ObjectManagerInterface, "GetManagedObjects")
	if err != nil {
		return nil, err
	}
	if err := dbus.Store(body, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode managed objects: %w", err)
	}

	return convertManagedObjects(reply), nil
}

// convertManagedObjects keeps the interfaces stratisd uses for pools,
// filesystems and block devices and unwraps their variants.
func convertManagedObjects(reply map[dbus.ObjectPath]map[string]map[string]dbus.Variant) objects.Raw {
	raw := make(objects.Raw, len(reply))
	for path, ifaces := range reply {
		bags := make(map[objects.Category]objects.Properties)
		for iface, props := range ifaces {
			category, ok := stratisd.CategoryFor(iface)
			if !ok {
				continue
			}
			bag := make(objects.Properties, len(props))
			for name, v := range props {
				bag[name] = unwrap(v.Value())
			}
			bags[category] = bag
		}
		if len(bags) > 0 {
			raw[objects.Handle(path)] = bags
		}
	}
	return raw
}

func unwrap(v any) any {
	switch val := v.(type) {
	case dbus.ObjectPath:
		return objects.Handle(val)
	case dbus.Variant:
		return unwrap(val.Value())
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = unwrap(item)
		}
		return out
	case map[string]dbus.Variant:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = unwrap(item)
		}
		return out
	case map[string]map[string]dbus.Variant:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = unwrap(item)
		}
		return out
	case []map[string]dbus.Variant:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = unwrap(item)
		}
		return out
	}
	return v
}

// Call invokes iface.method on the object at path and returns the reply
// body. Use dbus.Store to decode it.
func (c *Client) Call(ctx context.Context, path objects.Handle, iface, method string, args ...any) ([]any, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("client not connected")
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	start := time.Now()
	obj := c.conn.Object(stratisd.Service, dbus.ObjectPath(path))
	call := obj.CallWithContext(ctx, iface+"."+method, 0, args...)
	c.logger.Debug("dbus call", "method", method, "interface", iface, "path", path, "duration", time.Since(start), "error", call.Err)
	if call.Err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, path, call.Err)
	}

	return call.Body, nil
}

// GetProperty reads a single property.
func (c *Client) GetProperty(ctx context.Context, path objects.Handle, iface, name string) (any, error) {
	body, err := c.Call(ctx, path, stratisd.PropertiesInterface, "Get", iface, name)
	if err != nil {
		return nil, err
	}

	var v dbus.Variant
	if err := dbus.Store(body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode property %s: %w", name, err)
	}

	return unwrap(v.Value()), nil
}

// SetProperty writes a single property.
func (c *Client) SetProperty(ctx context.Context, path objects.Handle, iface, name string, value any) error {
	_, err := c.Call(ctx, path, stratisd.PropertiesInterface, "Set", iface, name, dbus.MakeVariant(value))
	return err
}

// CheckInterfaces introspects the manager object and verifies that it
// implements the interface revision this client speaks.
func (c *Client) CheckInterfaces(ctx context.Context) error {
	body, err := c.Call(ctx, stratisd.TopObject, "org.freedesktop.DBus.Introspectable", "Introspect")
	if err != nil {
		return err
	}

	var data string
	if err := dbus.Store(body, &data); err != nil {
		return fmt.Errorf("failed to decode introspection data: %w", err)
	}

	var node introspect.Node
	if err := xml.Unmarshal([]byte(data), &node); err != nil {
		return fmt.Errorf("failed to parse introspection data: %w", err)
	}

	return checkNode(node, stratisd.ManagerInterface)
}

func checkNode(node introspect.Node, want string) error {
	names := make([]string, 0, len(node.Interfaces))
	for _, iface := range node.Interfaces {
		names = append(names, iface.Name)
	}
	if !slices.Contains(names, want) {
		return fmt.Errorf("stratisd does not implement %s (found: %v)", want, names)
	}
	return nil
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout < 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
