package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/stratctl/internal/storage"
)

// JSONFormatter formats resources as JSON.
type JSONFormatter struct {
	// UnhyphenatedUUIDs prints UUIDs as 32 hex digits.
	UnhyphenatedUUIDs bool
}

// FormatPools formats a list of pools as a JSON array.
func (f *JSONFormatter) FormatPools(pools []storage.PoolInfo) (string, error) {
	return marshalJSON("pools", poolsWithUUIDs(pools, f.UnhyphenatedUUIDs))
}

// FormatPool formats a single pool as a JSON object.
func (f *JSONFormatter) FormatPool(pool storage.PoolInfo) (string, error) {
	return marshalJSON("pool", poolsWithUUIDs([]storage.PoolInfo{pool}, f.UnhyphenatedUUIDs)[0])
}

// FormatStoppedPools formats a list of stopped pools as a JSON array.
func (f *JSONFormatter) FormatStoppedPools(pools []storage.StoppedPoolInfo) (string, error) {
	return marshalJSON("stopped pools", stoppedPoolsWithUUIDs(pools, f.UnhyphenatedUUIDs))
}

// FormatStoppedPool formats a single stopped pool as a JSON object.
func (f *JSONFormatter) FormatStoppedPool(pool storage.StoppedPoolInfo) (string, error) {
	return marshalJSON("stopped pool", stoppedPoolsWithUUIDs([]storage.StoppedPoolInfo{pool}, f.UnhyphenatedUUIDs)[0])
}

// FormatFilesystems formats a list of filesystems as a JSON array.
func (f *JSONFormatter) FormatFilesystems(filesystems []storage.FilesystemInfo) (string, error) {
	return marshalJSON("filesystems", filesystemsWithUUIDs(filesystems, f.UnhyphenatedUUIDs))
}

// FormatFilesystem formats a single filesystem as a JSON object.
func (f *JSONFormatter) FormatFilesystem(fs storage.FilesystemInfo) (string, error) {
	return marshalJSON("filesystem", filesystemsWithUUIDs([]storage.FilesystemInfo{fs}, f.UnhyphenatedUUIDs)[0])
}

// FormatBlockdevs formats a list of block devices as a JSON array.
func (f *JSONFormatter) FormatBlockdevs(devices []storage.BlockdevInfo) (string, error) {
	return marshalJSON("block devices", blockdevsWithUUIDs(devices, f.UnhyphenatedUUIDs))
}

// marshalJSON indents v. Empty lists are emitted as [] rather than null.
func marshalJSON(what string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to JSON: %w", what, err)
	}
	return string(data) + "\n", nil
}
