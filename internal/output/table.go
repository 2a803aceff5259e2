package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/olekukonko/tablewriter"

	"github.com/jbweber/stratctl/internal/naming"
	"github.com/jbweber/stratctl/internal/status"
	"github.com/jbweber/stratctl/internal/storage"
)

// failureString stands in for a value the daemon could not compute.
const failureString = "FAILURE"

const totalUsedFree = "Total / Used / Free"

// TableFormatter formats resources as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
	// UnhyphenatedUUIDs prints UUIDs as 32 hex digits.
	UnhyphenatedUUIDs bool
}

// FormatPools formats a list of pools as a table.
func (f *TableFormatter) FormatPools(pools []storage.PoolInfo) (string, error) {
	rows := make([][]string, 0, len(pools))
	for _, p := range pools {
		rows = append(rows, []string{
			p.Name,
			sizeTriple(p.TotalSize, p.UsedSize),
			poolProperties(p),
			f.uuid(p.UUID),
			strings.Join(p.Alerts, ", "),
		})
	}

	return f.render(
		[]string{"Name", totalUsedFree, "Properties", "UUID", "Alerts"},
		rows,
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT},
	), nil
}

// FormatPool formats the detailed view of a single pool.
func (f *TableFormatter) FormatPool(p storage.PoolInfo) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "UUID: %s\n", f.uuid(p.UUID))
	fmt.Fprintf(&b, "Name: %s\n", p.Name)

	fmt.Fprintf(&b, "Alerts: %d\n", len(p.Alerts))
	for _, code := range p.Alerts {
		if alert, err := status.Lookup(code); err == nil {
			fmt.Fprintf(&b, "     %s: %s\n", alert.Code, alert.Summary)
		} else {
			fmt.Fprintf(&b, "     %s\n", code)
		}
	}

	fmt.Fprintf(&b, "Actions Allowed: %s\n", p.AvailableActions)
	fmt.Fprintf(&b, "Cache: %s\n", yesNo(p.HasCache))
	fmt.Fprintf(&b, "Filesystem Limit: %d\n", p.FsLimit)
	fmt.Fprintf(&b, "Allows Overprovisioning: %s\n", yesNo(p.Overprovisioning))
	fmt.Fprintf(&b, "Encrypted: %s\n", yesNo(p.Encrypted))

	b.WriteString("Space Usage:\n")
	fmt.Fprintf(&b, "Fully Allocated: %s\n", yesNo(p.NoAllocSpace))
	fmt.Fprintf(&b, "    Size: %s\n", bytesSize(p.TotalSize))
	fmt.Fprintf(&b, "    Used: %s\n", optionalSize(p.UsedSize))
	fmt.Fprintf(&b, "    Free: %s\n", optionalSize(p.FreeSize()))

	return b.String(), nil
}

// unavailableName stands in for the name of a stopped pool whose
// metadata could not be read.
const unavailableName = "<UNAVAILABLE>"

// FormatStoppedPools formats a list of stopped pools as a table.
func (f *TableFormatter) FormatStoppedPools(pools []storage.StoppedPoolInfo) (string, error) {
	rows := make([][]string, 0, len(pools))
	for _, p := range pools {
		rows = append(rows, []string{
			stoppedName(p.Name),
			f.uuid(p.UUID),
			fmt.Sprint(len(p.Devices)),
			yesNo(p.Encrypted),
		})
	}

	return f.render(
		[]string{"Name", "UUID", "# Devices", "Encrypted"},
		rows,
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT},
	), nil
}

// FormatStoppedPool formats the detailed view of a stopped pool.
func (f *TableFormatter) FormatStoppedPool(p storage.StoppedPoolInfo) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", stoppedName(p.Name))
	fmt.Fprintf(&b, "UUID: %s\n", f.uuid(p.UUID))
	fmt.Fprintf(&b, "Encrypted: %s\n", yesNo(p.Encrypted))
	b.WriteString("Devices:\n")
	for _, d := range p.Devices {
		fmt.Fprintf(&b, "%s  %s\n", f.uuid(d.UUID), d.Devnode)
	}

	return b.String(), nil
}

func stoppedName(name string) string {
	if name == "" {
		return unavailableName
	}
	return name
}

// FormatFilesystems formats a list of filesystems as a table.
func (f *TableFormatter) FormatFilesystems(filesystems []storage.FilesystemInfo) (string, error) {
	rows := make([][]string, 0, len(filesystems))
	for _, fs := range filesystems {
		rows = append(rows, []string{
			fs.Pool,
			fs.Name,
			sizeTriple(fs.Size, fs.Used) + " / " + sizeLimit(fs.SizeLimit),
			formatCreated(fs.Created),
			fs.Devnode,
			f.uuid(fs.UUID),
		})
	}

	return f.render(
		[]string{"Pool", "Filesystem", totalUsedFree + " / Limit", "Created", "Device", "UUID"},
		rows,
		nil,
	), nil
}

// FormatFilesystem formats the detailed view of a single filesystem.
func (f *TableFormatter) FormatFilesystem(fs storage.FilesystemInfo) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "UUID: %s\n", f.uuid(fs.UUID))
	fmt.Fprintf(&b, "Name: %s\n", fs.Name)
	fmt.Fprintf(&b, "Pool: %s\n", fs.Pool)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Device: %s\n", fs.Devnode)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Created: %s\n", formatCreated(fs.Created))
	b.WriteString("\n")
	origin := fs.Origin
	if origin == "" {
		origin = "None"
	}
	fmt.Fprintf(&b, "Snapshot origin: %s\n", origin)
	b.WriteString("\n")
	b.WriteString("Sizes:\n")
	fmt.Fprintf(&b, "  Logical size of thin device: %s\n", bytesSize(fs.Size))
	fmt.Fprintf(&b, "  Total used (including XFS metadata): %s\n", optionalSize(fs.Used))
	fmt.Fprintf(&b, "  Free: %s\n", optionalSize(freeOf(fs.Size, fs.Used)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Size Limit: %s\n", sizeLimit(fs.SizeLimit))

	return b.String(), nil
}

// FormatBlockdevs formats a list of block devices as a table.
func (f *TableFormatter) FormatBlockdevs(devices []storage.BlockdevInfo) (string, error) {
	rows := make([][]string, 0, len(devices))
	for _, bd := range devices {
		size := bytesSize(bd.Size)
		if bd.NewSize != nil && *bd.NewSize != bd.Size {
			size = fmt.Sprintf("%s (%s)", size, bytesSize(*bd.NewSize))
		}
		rows = append(rows, []string{
			bd.Pool,
			bd.Devnode,
			size,
			bd.Tier,
			f.uuid(bd.UUID),
		})
	}

	return f.render(
		[]string{"Pool Name", "Device Node", "Physical Size", "Tier", "UUID"},
		rows,
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT},
	), nil
}

func (f *TableFormatter) uuid(raw string) string {
	return naming.FormatUUID(raw, f.UnhyphenatedUUIDs)
}

// render writes rows as a borderless table. alignments may be nil for
// all left-aligned columns.
func (f *TableFormatter) render(headers []string, rows [][]string, alignments []int) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	if !f.NoHeaders {
		table.SetHeader(headers)
		table.SetAutoFormatHeaders(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	}
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	if alignments != nil {
		table.SetColumnAlignment(alignments)
	} else {
		table.SetAlignment(tablewriter.ALIGN_LEFT)
	}
	table.AppendBulk(rows)
	table.Render()

	return buf.String()
}

func bytesSize(n uint64) string {
	return units.BytesSize(float64(n))
}

func optionalSize(n *uint64) string {
	if n == nil {
		return failureString
	}
	return bytesSize(*n)
}

func sizeLimit(n *uint64) string {
	if n == nil {
		return "None"
	}
	return bytesSize(*n)
}

func freeOf(total uint64, used *uint64) *uint64 {
	if used == nil || *used > total {
		return nil
	}
	free := total - *used
	return &free
}

// sizeTriple renders "total / used / free".
func sizeTriple(total uint64, used *uint64) string {
	return fmt.Sprintf("%s / %s / %s", bytesSize(total), optionalSize(used), optionalSize(freeOf(total, used)))
}

// poolProperties renders the Ca, Cr, and Op flags, each prefixed with
// a space when set and "~" when not.
func poolProperties(p storage.PoolInfo) string {
	flag := func(set bool, code string) string {
		if set {
			return " " + code
		}
		return "~" + code
	}
	return strings.Join([]string{
		flag(p.HasCache, "Ca"),
		flag(p.Encrypted, "Cr"),
		flag(p.Overprovisioning, "Op"),
	}, ",")
}

// formatCreated renders an RFC 3339 creation time in local time.
// Unparseable values are returned unchanged.
func formatCreated(created string) string {
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return created
	}
	return t.Local().Format("Jan 02 2006 15:04")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
