// Package stratisd holds the D-Bus names, return codes and version
// requirements of the stratisd daemon.
package stratisd

import "github.com/jbweber/stratctl/internal/objects"

const (
	// Service is the well-known bus name of stratisd.
	Service = "org.storage.stratis3"
	// TopObject is the object path of the manager.
	TopObject objects.Handle = "/org/storage/stratis3"
	// Revision is the interface revision this client speaks.
	Revision = "r8"

	ManagerInterface    = Service + ".Manager." + Revision
	PoolInterface       = Service + ".pool." + Revision
	FilesystemInterface = Service + ".filesystem." + Revision
	BlockdevInterface   = Service + ".blockdev." + Revision

	ObjectManagerInterface = "org.freedesktop.DBus.ObjectManager"
	PropertiesInterface    = "org.freedesktop.DBus.Properties"
)

// Version bounds, inclusive minimum and exclusive maximum.
const (
	MinimumVersion = "3.8.2"
	MaximumVersion = "4.0.0"
)

// Filesystem devnodes live under this directory.
const DevDirectory = "/dev/stratis"

var interfaceCategories = map[string]objects.Category{
	PoolInterface:       objects.CategoryPool,
	FilesystemInterface: objects.CategoryFilesystem,
	BlockdevInterface:   objects.CategoryBlockdev,
}

// CategoryFor maps a D-Bus interface name to the category of object it
// describes.
func CategoryFor(iface string) (objects.Category, bool) {
	c, ok := interfaceCategories[iface]
	return c, ok
}

// InterfaceFor is the inverse of CategoryFor.
func InterfaceFor(c objects.Category) string {
	for iface, category := range interfaceCategories {
		if category == c {
			return iface
		}
	}
	return ""
}

// Schema lists the properties the client relies on for each category.
var Schema = objects.Schema{
	objects.CategoryPool:       {"Name", "Uuid", "HasCache", "Encrypted", "TotalPhysicalSize", "TotalPhysicalUsed", "AvailableActions"},
	objects.CategoryFilesystem: {"Name", "Uuid", "Pool", "Devnode", "Size", "Used"},
	objects.CategoryBlockdev:   {"Devnode", "Pool", "Tier", "Uuid"},
}
