// Package storage runs pool, filesystem, and block device commands
// against stratisd.
//
// Every operation follows the same shape:
//   - Fetch one snapshot of the managed objects
//   - Resolve the objects the command names, failing on none or many
//   - Run the prechecks (name conflicts, tier exclusivity, change
//     classification) so that redundant or conflicting requests are
//     rejected before the daemon sees them
//   - Call the daemon method and check its return code
//   - Treat a reply that reports no change as incoherent
//
// Consumer-Side Interface:
//
// The Bus interface lists the daemon operations the Manager needs.
// internal/dbus.Client satisfies it; tests use an in-memory fake.
//
// Example usage:
//
//	client, err := dbus.ConnectWithContext(ctx, dbus.Options{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	mgr := storage.NewManager(client, stratisd.NewErrorTable(), logger)
//
//	if _, err := mgr.AddDataDevices(ctx, "p1", []string{"/dev/sdb"}); err != nil {
//	    return err
//	}
package storage
