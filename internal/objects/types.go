package objects

import (
	"fmt"
	"strconv"
)

// Tier is the role a block device plays within its pool.
type Tier uint16

const (
	TierData  Tier = 0 // Holds pool data
	TierCache Tier = 1 // Caches the data tier
)

// String returns the display name of the tier.
func (t Tier) String() string {
	switch t {
	case TierData:
		return "Data"
	case TierCache:
		return "Cache"
	default:
		return fmt.Sprintf("Tier(%d)", uint16(t))
	}
}

// Opposite returns the other tier.
func (t Tier) Opposite() Tier {
	if t == TierData {
		return TierCache
	}
	return TierData
}

// FilterValue returns the tier as it appears in a property filter.
func (t Tier) FilterValue() string {
	return strconv.FormatUint(uint64(t), 10)
}

// Pool is a read-only view of a pool object.
type Pool struct {
	Handle            Handle
	Name              string
	UUID              string
	HasCache          bool
	Encrypted         bool
	Overprovisioning  bool
	NoAllocSpace      bool
	FsLimit           uint64
	TotalPhysicalSize uint64
	TotalPhysicalUsed *uint64 // nil when the daemon cannot compute it
	AvailableActions  string
}

// NewPool projects a pool property bag.
func NewPool(h Handle, p Properties) Pool {
	pool := Pool{
		Handle:           h,
		Name:             p.String("Name"),
		UUID:             p.String("Uuid"),
		HasCache:         p.Bool("HasCache"),
		Encrypted:        p.Bool("Encrypted"),
		Overprovisioning: p.Bool("Overprovisioning"),
		NoAllocSpace:     p.Bool("NoAllocSpace"),
		AvailableActions: p.String("AvailableActions"),
	}
	pool.FsLimit, _ = p.Uint64("FsLimit")
	pool.TotalPhysicalSize, _ = p.Uint64("TotalPhysicalSize")
	if used, ok := p.OptionalUint64("TotalPhysicalUsed"); ok {
		pool.TotalPhysicalUsed = &used
	}
	return pool
}

// Filesystem is a read-only view of a filesystem object. Pool refers
// to a pool handle in the same snapshot.
type Filesystem struct {
	Handle    Handle
	Name      string
	UUID      string
	Pool      Handle
	Devnode   string
	Created   string
	Size      uint64
	Used      *uint64
	SizeLimit *uint64
	Origin    *Handle
}

// NewFilesystem projects a filesystem property bag.
func NewFilesystem(h Handle, p Properties) Filesystem {
	fs := Filesystem{
		Handle:  h,
		Name:    p.String("Name"),
		UUID:    p.String("Uuid"),
		Pool:    p.Handle("Pool"),
		Devnode: p.String("Devnode"),
		Created: p.String("Created"),
	}
	fs.Size, _ = p.Uint64("Size")
	if used, ok := p.OptionalUint64("Used"); ok {
		fs.Used = &used
	}
	if limit, ok := p.OptionalUint64("SizeLimit"); ok {
		fs.SizeLimit = &limit
	}
	if origin, ok := p.OptionalString("Origin"); ok {
		o := Handle(origin)
		fs.Origin = &o
	}
	return fs
}

// Blockdev is a read-only view of a block device object.
type Blockdev struct {
	Handle            Handle
	Devnode           string
	PhysicalPath      string
	UUID              string
	Pool              Handle
	Tier              Tier
	TotalPhysicalSize uint64
	NewPhysicalSize   *uint64 // set when the device grew since it was added
	UserInfo          *string
}

// NewBlockdev projects a blockdev property bag.
func NewBlockdev(h Handle, p Properties) Blockdev {
	bd := Blockdev{
		Handle:       h,
		Devnode:      p.String("Devnode"),
		PhysicalPath: p.String("PhysicalPath"),
		UUID:         p.String("Uuid"),
		Pool:         p.Handle("Pool"),
	}
	if tier, ok := p.Uint64("Tier"); ok {
		bd.Tier = Tier(tier)
	}
	bd.TotalPhysicalSize, _ = p.Uint64("TotalPhysicalSize")
	if size, ok := p.OptionalUint64("NewPhysicalSize"); ok {
		bd.NewPhysicalSize = &size
	}
	if info, ok := p.OptionalString("UserInfo"); ok {
		bd.UserInfo = &info
	}
	return bd
}

// PoolNames maps every pool handle in s to its name.
func PoolNames(s *Snapshot) map[Handle]string {
	names := make(map[Handle]string)
	for h, props := range Pools(nil).Search(s) {
		names[h] = props.String("Name")
	}
	return names
}
