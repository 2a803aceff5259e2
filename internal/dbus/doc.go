// Package dbus provides a client wrapper for talking to stratisd.
//
// This package wraps github.com/godbus/dbus/v5 to provide:
//   - Connection management (connect, close, ping)
//   - Snapshot retrieval via ObjectManager.GetManagedObjects
//   - Method calls and property access with a per-call timeout
//   - An introspection check for the expected interface revision
//
// Connection Management:
//
//	client, err := dbus.Connect(dbus.Options{Bus: "system", Timeout: 2 * time.Minute})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if err := client.Ping(ctx); err != nil {
//	    return err
//	}
//
// Method replies are returned as the raw D-Bus body. Consumers decode
// them with dbus.Store into Go values matching the method signature:
//
//	body, err := client.Call(ctx, poolPath, stratisd.PoolInterface, "AddDataDevs", devices)
//	var reply struct {
//	    Result struct {
//	        Added bool
//	        Devs  []dbus.ObjectPath
//	    }
//	    ReturnCode uint16
//	    Message    string
//	}
//	err = dbus.Store(body, &reply.Result, &reply.ReturnCode, &reply.Message)
//
// Consumer-Side Interfaces:
//
// This package does not define interfaces. Consumers (internal/storage)
// define a Bus interface listing only what they call. *Client satisfies
// it implicitly, which lets tests substitute an in-memory fake.
package dbus
