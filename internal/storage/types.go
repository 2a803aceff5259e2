package storage

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jbweber/stratctl/internal/naming"
	"github.com/jbweber/stratctl/internal/objects"
)

// PoolSelector identifies a pool by name or UUID.
type PoolSelector struct {
	Name string
	UUID *uuid.UUID
}

// PoolByName selects a pool by name.
func PoolByName(name string) PoolSelector {
	return PoolSelector{Name: name}
}

// PoolByUUID selects a pool by UUID.
func PoolByUUID(u uuid.UUID) PoolSelector {
	return PoolSelector{UUID: &u}
}

// Validate checks that exactly one of Name and UUID is set.
func (s PoolSelector) Validate() error {
	if s.Name == "" && s.UUID == nil {
		return fmt.Errorf("pool name or UUID is required")
	}
	if s.Name != "" && s.UUID != nil {
		return fmt.Errorf("pool name and UUID are mutually exclusive")
	}
	return nil
}

// Filter returns the property filter that matches the pool.
func (s PoolSelector) Filter() objects.Filter {
	if s.UUID != nil {
		return objects.Filter{"Uuid": naming.UUIDFilterValue(*s.UUID)}
	}
	return objects.Filter{"Name": s.Name}
}

// idArgs returns the (id, id_type) pair StopPool and StartPool take.
func (s PoolSelector) idArgs() (string, string) {
	if s.UUID != nil {
		return naming.UUIDFilterValue(*s.UUID), "uuid"
	}
	return s.Name, "name"
}

func (s PoolSelector) String() string {
	if s.UUID != nil {
		return "UUID " + s.UUID.String()
	}
	return s.Name
}

// CreatePoolOptions holds the optional settings for a new pool.
type CreatePoolOptions struct {
	// NoOverprovision disables overprovisioning once the pool exists.
	NoOverprovision bool
	// Integrity enables the integrity layer with the given settings.
	Integrity *IntegrityOptions
}

// IntegrityOptions configures dm-integrity for a new pool.
type IntegrityOptions struct {
	JournalSize uint64
	TagSpec     TagSpec
}

// TagSpec is the integrity tag size.
type TagSpec string

const (
	TagSpec0B   TagSpec = "0b"   // No tags
	TagSpec32B  TagSpec = "32b"  // 32 bit tags
	TagSpec512B TagSpec = "512b" // 512 bit tags
)

// Validate checks if the tag spec is supported.
func (t TagSpec) Validate() error {
	switch t {
	case TagSpec0B, TagSpec32B, TagSpec512B:
		return nil
	default:
		return fmt.Errorf("unsupported tag spec: %s (supported: 0b, 32b, 512b)", t)
	}
}

// FilesystemOptions holds the optional sizes for new filesystems.
type FilesystemOptions struct {
	Size      *uint64
	SizeLimit *uint64
}

// Validate checks that the size does not exceed the size limit.
func (o FilesystemOptions) Validate() error {
	if o.Size != nil && o.SizeLimit != nil && *o.SizeLimit < *o.Size {
		return fmt.Errorf("size limit %d is smaller than size %d", *o.SizeLimit, *o.Size)
	}
	return nil
}

// PoolInfo describes a pool for listing.
type PoolInfo struct {
	Name             string   `json:"name" yaml:"name"`
	UUID             string   `json:"uuid" yaml:"uuid"`
	TotalSize        uint64   `json:"totalSize" yaml:"totalSize"`
	UsedSize         *uint64  `json:"usedSize,omitempty" yaml:"usedSize,omitempty"`
	HasCache         bool     `json:"hasCache" yaml:"hasCache"`
	Encrypted        bool     `json:"encrypted" yaml:"encrypted"`
	Overprovisioning bool     `json:"overprovisioning" yaml:"overprovisioning"`
	FsLimit          uint64   `json:"fsLimit" yaml:"fsLimit"`
	AvailableActions string   `json:"availableActions" yaml:"availableActions"`
	NoAllocSpace     bool     `json:"noAllocSpace" yaml:"noAllocSpace"`
	Alerts           []string `json:"alerts,omitempty" yaml:"alerts,omitempty"`
}

// FreeSize returns the unused space, if the used size is known.
func (p PoolInfo) FreeSize() *uint64 {
	if p.UsedSize == nil || *p.UsedSize > p.TotalSize {
		return nil
	}
	free := p.TotalSize - *p.UsedSize
	return &free
}

// StoppedPoolInfo describes a pool that is known to stratisd but not
// running.
type StoppedPoolInfo struct {
	Name      string              `json:"name,omitempty" yaml:"name,omitempty"` // Empty when the metadata is unreadable
	UUID      string              `json:"uuid" yaml:"uuid"`
	Encrypted bool                `json:"encrypted" yaml:"encrypted"`
	Devices   []StoppedDeviceInfo `json:"devices" yaml:"devices"`
}

// StoppedDeviceInfo is one device of a stopped pool.
type StoppedDeviceInfo struct {
	UUID    string `json:"uuid" yaml:"uuid"`
	Devnode string `json:"devnode" yaml:"devnode"`
}

// FilesystemInfo describes a filesystem for listing.
type FilesystemInfo struct {
	Pool      string  `json:"pool" yaml:"pool"`
	Name      string  `json:"name" yaml:"name"`
	UUID      string  `json:"uuid" yaml:"uuid"`
	Devnode   string  `json:"devnode" yaml:"devnode"`
	Created   string  `json:"created" yaml:"created"`
	Size      uint64  `json:"size" yaml:"size"`
	Used      *uint64 `json:"used,omitempty" yaml:"used,omitempty"`
	SizeLimit *uint64 `json:"sizeLimit,omitempty" yaml:"sizeLimit,omitempty"`
	Origin    string  `json:"origin,omitempty" yaml:"origin,omitempty"` // Name of the filesystem this is a snapshot of
}

// BlockdevInfo describes a block device for listing.
type BlockdevInfo struct {
	Pool         string  `json:"pool" yaml:"pool"`
	Devnode      string  `json:"devnode" yaml:"devnode"`
	PhysicalPath string  `json:"physicalPath" yaml:"physicalPath"`
	UUID         string  `json:"uuid" yaml:"uuid"`
	Tier         string  `json:"tier" yaml:"tier"`
	Size         uint64  `json:"size" yaml:"size"`
	NewSize      *uint64 `json:"newSize,omitempty" yaml:"newSize,omitempty"`
}
