package output

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/stratctl/internal/storage"
)

func u64(n uint64) *uint64 { return &n }

func testPools() []storage.PoolInfo {
	return []storage.PoolInfo{
		{
			Name:             "p1",
			UUID:             "0123456789abcdef0123456789abcdef",
			TotalSize:        1 << 30,
			UsedSize:         u64(256 << 20),
			HasCache:         true,
			Overprovisioning: true,
			FsLimit:          100,
			AvailableActions: "fully_operational",
		},
		{
			Name:             "p2",
			UUID:             "fedcba9876543210fedcba9876543210",
			TotalSize:        1 << 30,
			FsLimit:          100,
			AvailableActions: "no_ipc_requests",
			NoAllocSpace:     true,
			Alerts:           []string{"EM001", "WS001"},
		},
	}
}

func testFilesystems() []storage.FilesystemInfo {
	return []storage.FilesystemInfo{
		{
			Pool:    "p1",
			Name:    "fs1",
			UUID:    "ffffffffffffffffffffffffffffffff",
			Devnode: "/dev/stratis/p1/fs1",
			Created: "2024-05-01T10:00:00Z",
			Size:    1 << 30,
			Used:    u64(1 << 20),
		},
	}
}

func testBlockdevs() []storage.BlockdevInfo {
	return []storage.BlockdevInfo{
		{Pool: "p1", Devnode: "/dev/sda", UUID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Tier: "Data", Size: 1 << 30},
		{Pool: "p1", Devnode: "/dev/sdb", UUID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Tier: "Cache", Size: 1 << 30, NewSize: u64(2 << 30)},
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{name: "table", format: FormatTable},
		{name: "yaml", format: FormatYAML},
		{name: "json", format: FormatJSON},
		{name: "invalid", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(Options{Format: tt.format})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && f == nil {
				t.Error("NewFormatter() returned nil formatter")
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	for _, valid := range []string{"table", "yaml", "json"} {
		if err := ValidateFormat(valid); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "TABLE", "xml"} {
		if err := ValidateFormat(invalid); err == nil {
			t.Errorf("ValidateFormat(%q) succeeded, want error", invalid)
		}
	}
}

func TestTableFormatter_FormatPools(t *testing.T) {
	f := &TableFormatter{}
	out, err := f.FormatPools(testPools())
	if err != nil {
		t.Fatalf("FormatPools() error = %v", err)
	}

	for _, want := range []string{
		"Name",
		"Total / Used / Free",
		"Properties",
		"p1",
		"1GiB / 256MiB / 768MiB",
		" Ca,~Cr, Op",
		"01234567-89ab-cdef-0123-456789abcdef",
		"1GiB / FAILURE / FAILURE",
		"~Ca,~Cr,~Op",
		"EM001, WS001",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatPools() output missing %q:\n%s", want, out)
		}
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Errorf("FormatPools() returned %d lines, want 3:\n%s", len(lines), out)
	}
}

func TestTableFormatter_NoHeadersAndUnhyphenated(t *testing.T) {
	f := &TableFormatter{NoHeaders: true, UnhyphenatedUUIDs: true}
	out, err := f.FormatPools(testPools()[:1])
	if err != nil {
		t.Fatalf("FormatPools() error = %v", err)
	}

	if strings.Contains(out, "Name") {
		t.Errorf("header printed with NoHeaders:\n%s", out)
	}
	if !strings.Contains(out, "0123456789abcdef0123456789abcdef") {
		t.Errorf("UUID not unhyphenated:\n%s", out)
	}
}

func TestTableFormatter_FormatPool(t *testing.T) {
	f := &TableFormatter{}
	out, err := f.FormatPool(testPools()[1])
	if err != nil {
		t.Fatalf("FormatPool() error = %v", err)
	}

	for _, want := range []string{
		"UUID: fedcba98-7654-3210-fedc-ba9876543210\n",
		"Name: p2\n",
		"Alerts: 2\n",
		"     EM001: Pool state changes not possible\n",
		"     WS001: All devices fully allocated\n",
		"Actions Allowed: no_ipc_requests\n",
		"Cache: No\n",
		"Filesystem Limit: 100\n",
		"Allows Overprovisioning: No\n",
		"Fully Allocated: Yes\n",
		"    Size: 1GiB\n",
		"    Used: FAILURE\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatPool() output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatter_FormatFilesystems(t *testing.T) {
	f := &TableFormatter{}
	out, err := f.FormatFilesystems(testFilesystems())
	if err != nil {
		t.Fatalf("FormatFilesystems() error = %v", err)
	}

	for _, want := range []string{
		"Total / Used / Free / Limit",
		"1GiB / 1MiB / 1023MiB / None",
		"/dev/stratis/p1/fs1",
		"ffffffff-ffff-ffff-ffff-ffffffffffff",
		"2024",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatFilesystems() output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatter_FormatFilesystem(t *testing.T) {
	fs := testFilesystems()[0]
	fs.Origin = "base"
	fs.SizeLimit = u64(2 << 30)

	f := &TableFormatter{}
	out, err := f.FormatFilesystem(fs)
	if err != nil {
		t.Fatalf("FormatFilesystem() error = %v", err)
	}

	for _, want := range []string{
		"Name: fs1\n",
		"Pool: p1\n",
		"Snapshot origin: base\n",
		"  Logical size of thin device: 1GiB\n",
		"  Free: 1023MiB\n",
		"  Size Limit: 2GiB\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatFilesystem() output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatter_FormatBlockdevs(t *testing.T) {
	f := &TableFormatter{}
	out, err := f.FormatBlockdevs(testBlockdevs())
	if err != nil {
		t.Fatalf("FormatBlockdevs() error = %v", err)
	}

	for _, want := range []string{"Pool Name", "Device Node", "/dev/sda", "Cache", "1GiB (2GiB)"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatBlockdevs() output missing %q:\n%s", want, out)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONFormatter{}

	out, err := f.FormatPools(testPools())
	if err != nil {
		t.Fatalf("FormatPools() error = %v", err)
	}

	var pools []storage.PoolInfo
	if err := json.Unmarshal([]byte(out), &pools); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(pools) != 2 || pools[0].UUID != "01234567-89ab-cdef-0123-456789abcdef" {
		t.Errorf("unexpected pools: %+v", pools)
	}

	empty, err := f.FormatFilesystems(nil)
	if err != nil {
		t.Fatalf("FormatFilesystems() error = %v", err)
	}
	if empty != "[]\n" {
		t.Errorf("FormatFilesystems(nil) = %q, want []", empty)
	}
}

func TestYAMLFormatter(t *testing.T) {
	f := &YAMLFormatter{UnhyphenatedUUIDs: true}

	out, err := f.FormatBlockdevs(testBlockdevs())
	if err != nil {
		t.Fatalf("FormatBlockdevs() error = %v", err)
	}

	var devices []storage.BlockdevInfo
	if err := yaml.Unmarshal([]byte(out), &devices); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, out)
	}
	if len(devices) != 2 || devices[1].Tier != "Cache" {
		t.Errorf("unexpected devices: %+v", devices)
	}
	if devices[0].UUID != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("UUID = %q, want unhyphenated", devices[0].UUID)
	}

	one, err := f.FormatPool(testPools()[0])
	if err != nil {
		t.Fatalf("FormatPool() error = %v", err)
	}
	if !strings.Contains(one, "name: p1\n") {
		t.Errorf("FormatPool() output missing name:\n%s", one)
	}
}

func testStoppedPools() []storage.StoppedPoolInfo {
	return []storage.StoppedPoolInfo{
		{
			UUID:      "11111111111111111111111111111111",
			Encrypted: true,
			Devices:   []storage.StoppedDeviceInfo{{UUID: "cccccccccccccccccccccccccccccccc", Devnode: "/dev/sdd"}},
		},
		{
			Name: "p1",
			UUID: "22222222222222222222222222222222",
			Devices: []storage.StoppedDeviceInfo{
				{UUID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Devnode: "/dev/sdb"},
				{UUID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Devnode: "/dev/sdc"},
			},
		},
	}
}

func TestTableFormatter_FormatStoppedPools(t *testing.T) {
	f := &TableFormatter{}
	out, err := f.FormatStoppedPools(testStoppedPools())
	if err != nil {
		t.Fatalf("FormatStoppedPools() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	for _, want := range []string{"Name", "UUID", "# Devices", "Encrypted"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header missing %q: %s", want, lines[0])
		}
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[1]), "<UNAVAILABLE>") || !strings.Contains(lines[1], "Yes") {
		t.Errorf("unnamed pool row = %q", lines[1])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[2]), "p1") || !strings.Contains(lines[2], "22222222-2222-2222-2222-222222222222") {
		t.Errorf("p1 row = %q", lines[2])
	}
}

func TestTableFormatter_FormatStoppedPool(t *testing.T) {
	f := &TableFormatter{UnhyphenatedUUIDs: true}
	out, err := f.FormatStoppedPool(testStoppedPools()[1])
	if err != nil {
		t.Fatalf("FormatStoppedPool() error = %v", err)
	}

	want := "Name: p1\n" +
		"UUID: 22222222222222222222222222222222\n" +
		"Encrypted: No\n" +
		"Devices:\n" +
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa  /dev/sdb\n" +
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb  /dev/sdc\n"
	if out != want {
		t.Errorf("FormatStoppedPool() = %q, want %q", out, want)
	}
}

func TestJSONFormatter_FormatStoppedPools(t *testing.T) {
	f := &JSONFormatter{}
	out, err := f.FormatStoppedPools(testStoppedPools())
	if err != nil {
		t.Fatalf("FormatStoppedPools() error = %v", err)
	}

	var pools []storage.StoppedPoolInfo
	if err := json.Unmarshal([]byte(out), &pools); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(pools) != 2 || pools[1].Devices[0].UUID != "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa" {
		t.Errorf("unexpected stopped pools: %+v", pools)
	}
	if strings.Contains(out, `"name": ""`) {
		t.Errorf("empty name should be omitted:\n%s", out)
	}
}
