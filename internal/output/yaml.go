package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/stratctl/internal/storage"
)

// YAMLFormatter formats resources as YAML.
type YAMLFormatter struct {
	// UnhyphenatedUUIDs prints UUIDs as 32 hex digits.
	UnhyphenatedUUIDs bool
}

// FormatPools formats a list of pools as a YAML sequence.
func (f *YAMLFormatter) FormatPools(pools []storage.PoolInfo) (string, error) {
	return marshalYAML("pools", poolsWithUUIDs(pools, f.UnhyphenatedUUIDs))
}

// FormatPool formats a single pool as a YAML mapping.
func (f *YAMLFormatter) FormatPool(pool storage.PoolInfo) (string, error) {
	return marshalYAML("pool", poolsWithUUIDs([]storage.PoolInfo{pool}, f.UnhyphenatedUUIDs)[0])
}

// FormatStoppedPools formats a list of stopped pools as a YAML sequence.
func (f *YAMLFormatter) FormatStoppedPools(pools []storage.StoppedPoolInfo) (string, error) {
	return marshalYAML("stopped pools", stoppedPoolsWithUUIDs(pools, f.UnhyphenatedUUIDs))
}

// FormatStoppedPool formats a single stopped pool as a YAML mapping.
func (f *YAMLFormatter) FormatStoppedPool(pool storage.StoppedPoolInfo) (string, error) {
	return marshalYAML("stopped pool", stoppedPoolsWithUUIDs([]storage.StoppedPoolInfo{pool}, f.UnhyphenatedUUIDs)[0])
}

// FormatFilesystems formats a list of filesystems as a YAML sequence.
func (f *YAMLFormatter) FormatFilesystems(filesystems []storage.FilesystemInfo) (string, error) {
	return marshalYAML("filesystems", filesystemsWithUUIDs(filesystems, f.UnhyphenatedUUIDs))
}

// FormatFilesystem formats a single filesystem as a YAML mapping.
func (f *YAMLFormatter) FormatFilesystem(fs storage.FilesystemInfo) (string, error) {
	return marshalYAML("filesystem", filesystemsWithUUIDs([]storage.FilesystemInfo{fs}, f.UnhyphenatedUUIDs)[0])
}

// FormatBlockdevs formats a list of block devices as a YAML sequence.
func (f *YAMLFormatter) FormatBlockdevs(devices []storage.BlockdevInfo) (string, error) {
	return marshalYAML("block devices", blockdevsWithUUIDs(devices, f.UnhyphenatedUUIDs))
}

func marshalYAML(what string, v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to YAML: %w", what, err)
	}
	return string(data), nil
}
