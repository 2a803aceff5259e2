package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	godbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/jbweber/stratctl/internal/failure"
)

func init() {
	color.NoColor = true
}

func TestReport_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		raw  bool
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "usage", err: usageError{errors.New("accepts 1 arg(s), received 0")}, want: exitUsage},
		{name: "usage wins over propagate", err: usageError{errors.New("bad flag")}, raw: true, want: exitUsage},
		{name: "taxonomy", err: failure.NewNoChangeError("rename", "p2"), want: exitError},
		{name: "propagated", err: errors.New("boom"), raw: true, want: exitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.want, report(&buf, tt.err, tt.raw))
			if tt.err == nil {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestReport_Output(t *testing.T) {
	err := fmt.Errorf("failed to rename pool: %w", failure.NewNoChangeError("rename", "p2"))

	var buf bytes.Buffer
	report(&buf, err, false)
	assert.Equal(t, "Execution failed:\n"+
		"It appears that you issued an unintended command: the rename command would have no effect for p2.\n",
		buf.String())

	buf.Reset()
	report(&buf, err, true)
	assert.Equal(t, "Error: failed to rename pool: rename would have no effect for p2\n", buf.String())
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   string
		prefix bool
	}{
		{
			name: "daemon not running",
			err:  fmt.Errorf("failed to get daemon version: %w", godbus.Error{Name: busNameHasNoOwner}),
			want: "Most likely stratisd is not running: nothing owns the bus name org.storage.stratis3.",
		},
		{
			name: "permissions",
			err:  &godbus.Error{Name: busAccessDenied},
			want: "Most likely you do not have sufficient permissions to talk to stratisd; try running as root.",
		},
		{
			name: "timeout",
			err:  godbus.Error{Name: busNoReply},
			want: "stratisd did not reply before the timeout expired; it may be busy. " +
				"A longer --timeout or STRATIS_DBUS_TIMEOUT may help.",
		},
		{
			name: "client side timeout",
			err:  fmt.Errorf("failed to call ListPools: %w", context.DeadlineExceeded),
			want: "stratisd did not reply before the timeout expired; it may be busy. " +
				"A longer --timeout or STRATIS_DBUS_TIMEOUT may help.",
		},
		{
			name:   "not found",
			err:    fmt.Errorf("failed to destroy pool: %w", &failure.NotFoundError{Category: "pool", Filter: map[string]string{"Name": "p9"}}),
			want:   "Most likely you specified a pool which does not exist: no pool found matching ",
			prefix: true,
		},
		{
			name: "partial change",
			err:  failure.NewPartialChangeError("add-data", []string{"/dev/sdd"}, []string{"/dev/sda"}),
			want: "It appears that you issued an unintended command: the add-data command would have no effect for /dev/sda. " +
				"It would change /dev/sdd. Leave out the items that need no change and retry.",
		},
		{
			name: "in use other tier",
			err: &failure.InUseError{
				Tier:  "Cache",
				Pools: map[string][]string{"p1": {"/dev/sdb"}},
			},
			want: "You specified devices that are already in use in the Cache tier: /dev/sdb. " +
				"A device can belong to only one tier of one pool.",
		},
		{
			name: "in use same tier",
			err: &failure.InUseError{
				SameTier: true,
				Tier:     "Data",
				Pools:    map[string][]string{"p2": {"/dev/sdc"}},
			},
			want: "You specified devices that are already in the Data tier of another pool: /dev/sdc.",
		},
		{
			name: "engine",
			err:  &failure.EngineError{ReturnCode: 1, CodeName: "ERROR", Message: "pool has filesystems"},
			want: "stratisd failed to perform the operation that you requested. " +
				"It returned the following information via the D-Bus: ERROR: pool has filesystems.",
		},
		{
			name: "name conflict",
			err:  &failure.NameConflictError{Category: "pool", Name: "p1"},
			want: `You tried to create a pool named "p1", but one already exists. Choose a different name.`,
		},
		{
			name: "no property change",
			err:  &failure.NoPropertyChangeError{Message: "Pool p1 already has a cache"},
			want: "Pool p1 already has a cache",
		},
		{
			name: "version",
			err:  &failure.VersionError{Found: "3.7.0", Minimum: "3.8.2", Maximum: "4.0.0"},
			want: "stratisd version 3.7.0 does not satisfy the required range >= 3.8.2, < 4.0.0. " +
				"Install a stratisd in that range, or pass --skip-version-check at your own risk.",
		},
		{
			name: "unknown bus error falls through",
			err:  godbus.Error{Name: "org.freedesktop.DBus.Error.Failed", Body: []any{"oops"}},
			want: "oops",
		},
		{
			name: "plain",
			err:  errors.New("something else"),
			want: "something else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := explain(tt.err)
			if tt.prefix {
				assert.True(t, strings.HasPrefix(got, tt.want), "explain() = %q", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExplain_Incoherence(t *testing.T) {
	got := explain(failure.Incoherent("expected to add 2 devices, added 1"))
	assert.Contains(t, got, "contradicts its published state")
	assert.Contains(t, got, "expected to add 2 devices, added 1")
}
