package precheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/stratctl/internal/objects"
)

func TestAudit_Clean(t *testing.T) {
	snap := buildSnapshot(t,
		[]string{"p1", "p2"},
		[]device{
			{pool: "p1", devnode: "/dev/sda", tier: objects.TierData},
			{pool: "p1", devnode: "/dev/sdb", tier: objects.TierCache},
			{pool: "p2", devnode: "/dev/sdc", tier: objects.TierData},
		})

	assert.Empty(t, Audit(snap))
}

func TestAudit_Violations(t *testing.T) {
	snap := buildSnapshot(t,
		[]string{"p1", "p2"},
		[]device{
			{pool: "p1", devnode: "/dev/sda", tier: objects.TierData},
			{pool: "p2", devnode: "/dev/sda", tier: objects.TierCache},
			{pool: "gone", devnode: "/dev/sdz", tier: objects.TierData},
		})

	got := Audit(snap)
	require.Len(t, got, 2)

	assert.Equal(t, "blockdev /dev/sda", got[0].Subject)
	assert.Equal(t, "in use in more than one place: Cache tier of pool p2; Data tier of pool p1", got[0].Message)
	assert.Equal(t, "blockdev /dev/sdz", got[1].Subject)
	assert.Contains(t, got[1].String(), "refers to unknown pool")
}

func TestAudit_DuplicatePoolNamesAndOrphanFilesystem(t *testing.T) {
	raw := objects.Raw{
		"/p/1": {objects.CategoryPool: {"Name": "dup"}},
		"/p/2": {objects.CategoryPool: {"Name": "dup"}},
		"/f/1": {objects.CategoryFilesystem: {"Name": "fs1", "Pool": objects.Handle("/p/9")}},
	}
	snap, err := objects.NewSnapshot(raw, nil)
	require.NoError(t, err)

	got := Audit(snap)
	require.Len(t, got, 2)
	assert.Equal(t, Violation{Subject: "filesystem fs1", Message: "refers to unknown pool /p/9"}, got[0])
	assert.Equal(t, Violation{Subject: "pool dup", Message: "name is used by 2 pools"}, got[1])
}
