// Package naming provides conventions for identifying stratisd objects:
// UUID rendering and parsing, absolute device paths, and filesystem
// device nodes.
package naming

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FormatUUID renders a UUID published by stratisd. stratisd publishes
// UUIDs as 32 hex digits; they are shown hyphenated unless unhyphenated
// is set. Values that do not parse are returned unchanged.
//
// Example: 0123456789abcdef0123456789abcdef → 01234567-89ab-cdef-0123-456789abcdef
func FormatUUID(raw string, unhyphenated bool) string {
	u, err := uuid.Parse(raw)
	if err != nil {
		return raw
	}
	if unhyphenated {
		return strings.ReplaceAll(u.String(), "-", "")
	}
	return u.String()
}

// ParseUUID accepts a UUID in any form uuid.Parse understands.
func ParseUUID(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	return u, nil
}

// UUIDFilterValue returns the form stratisd uses in its Uuid property.
func UUIDFilterValue(u uuid.UUID) string {
	return strings.ReplaceAll(u.String(), "-", "")
}

// AbsDevices resolves every device path to an absolute, cleaned path
// and drops duplicates while keeping the first occurrence's order.
func AbsDevices(devices []string) ([]string, error) {
	seen := make(map[string]bool, len(devices))
	out := make([]string, 0, len(devices))
	for _, dev := range devices {
		abs, err := filepath.Abs(dev)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve device path %s: %w", dev, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out, nil
}

// FilesystemDevnode returns the device node stratisd creates for a
// filesystem.
//
// Example: pool p1, filesystem fs1 → /dev/stratis/p1/fs1
func FilesystemDevnode(devDir, pool, filesystem string) string {
	return path.Join(devDir, pool, filesystem)
}
