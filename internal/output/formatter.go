// Package output provides formatters for displaying pools, filesystems,
// and block devices in various formats (table, YAML, JSON).
package output

import (
	"fmt"

	"github.com/jbweber/stratctl/internal/naming"
	"github.com/jbweber/stratctl/internal/storage"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Formatter formats storage objects for output.
type Formatter interface {
	// FormatPools formats a list of pools.
	FormatPools(pools []storage.PoolInfo) (string, error)

	// FormatPool formats the detailed view of a single pool.
	FormatPool(pool storage.PoolInfo) (string, error)

	// FormatStoppedPools formats a list of stopped pools.
	FormatStoppedPools(pools []storage.StoppedPoolInfo) (string, error)

	// FormatStoppedPool formats the detailed view of a stopped pool.
	FormatStoppedPool(pool storage.StoppedPoolInfo) (string, error)

	// FormatFilesystems formats a list of filesystems.
	FormatFilesystems(filesystems []storage.FilesystemInfo) (string, error)

	// FormatFilesystem formats the detailed view of a single filesystem.
	FormatFilesystem(fs storage.FilesystemInfo) (string, error)

	// FormatBlockdevs formats a list of block devices.
	FormatBlockdevs(devices []storage.BlockdevInfo) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
	// UnhyphenatedUUIDs prints UUIDs as 32 hex digits.
	UnhyphenatedUUIDs bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders, UnhyphenatedUUIDs: opts.UnhyphenatedUUIDs}, nil
	case FormatYAML:
		return &YAMLFormatter{UnhyphenatedUUIDs: opts.UnhyphenatedUUIDs}, nil
	case FormatJSON:
		return &JSONFormatter{UnhyphenatedUUIDs: opts.UnhyphenatedUUIDs}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}

// The structured formatters emit the same UUID rendering as tables.

func poolsWithUUIDs(pools []storage.PoolInfo, unhyphenated bool) []storage.PoolInfo {
	out := make([]storage.PoolInfo, len(pools))
	for i, p := range pools {
		p.UUID = naming.FormatUUID(p.UUID, unhyphenated)
		out[i] = p
	}
	return out
}

func stoppedPoolsWithUUIDs(pools []storage.StoppedPoolInfo, unhyphenated bool) []storage.StoppedPoolInfo {
	out := make([]storage.StoppedPoolInfo, len(pools))
	for i, p := range pools {
		p.UUID = naming.FormatUUID(p.UUID, unhyphenated)
		devices := make([]storage.StoppedDeviceInfo, len(p.Devices))
		for j, d := range p.Devices {
			d.UUID = naming.FormatUUID(d.UUID, unhyphenated)
			devices[j] = d
		}
		p.Devices = devices
		out[i] = p
	}
	return out
}

func filesystemsWithUUIDs(filesystems []storage.FilesystemInfo, unhyphenated bool) []storage.FilesystemInfo {
	out := make([]storage.FilesystemInfo, len(filesystems))
	for i, fs := range filesystems {
		fs.UUID = naming.FormatUUID(fs.UUID, unhyphenated)
		out[i] = fs
	}
	return out
}

func blockdevsWithUUIDs(devices []storage.BlockdevInfo, unhyphenated bool) []storage.BlockdevInfo {
	out := make([]storage.BlockdevInfo, len(devices))
	for i, bd := range devices {
		bd.UUID = naming.FormatUUID(bd.UUID, unhyphenated)
		out[i] = bd
	}
	return out
}
