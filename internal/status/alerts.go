// Package status derives pool alerts from the state stratisd publishes.
package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jbweber/stratctl/internal/objects"
)

// Alert is a condition worth drawing the user's attention to.
type Alert struct {
	Code        string
	Summary     string
	Explanation string
}

func (a Alert) String() string {
	return a.Code
}

var (
	AlertNoIPCRequests = Alert{
		Code:    "EM001",
		Summary: "Pool state changes not possible",
		Explanation: "The pool will return an error on any IPC request that could cause a change in the " +
			"pool state, for example, a request to rename a filesystem. It will still be able to " +
			"respond to purely informational requests.",
	}
	AlertNoPoolChanges = Alert{
		Code:    "EM002",
		Summary: "Pool maintenance operations not possible",
		Explanation: "The pool is unable to manage itself by reacting to events, such as devicemapper " +
			"events, that might require it to take any maintenance operations.",
	}
	AlertNoAllocSpace = Alert{
		Code:    "WS001",
		Summary: "All devices fully allocated",
		Explanation: "Every device belonging to the pool has been fully allocated. To increase the " +
			"allocable space, add additional data devices to the pool.",
	}
	AlertDeviceGrew = Alert{
		Code:        "IDS001",
		Summary:     "A device in this pool has increased in size.",
		Explanation: "At least one device belonging to this pool appears to have increased in size.",
	}
	AlertDeviceShrank = Alert{
		Code:        "WDS002",
		Summary:     "A device in this pool has decreased in size.",
		Explanation: "At least one device belonging to this pool appears to have decreased in size.",
	}
)

var allAlerts = []Alert{
	AlertNoIPCRequests,
	AlertNoPoolChanges,
	AlertNoAllocSpace,
	AlertDeviceGrew,
	AlertDeviceShrank,
}

// Lookup finds an alert by code, ignoring case.
func Lookup(code string) (Alert, error) {
	for _, a := range allAlerts {
		if strings.EqualFold(a.Code, code) {
			return a, nil
		}
	}
	return Alert{}, fmt.Errorf("unknown alert code %q (known codes: %s)", code, strings.Join(Codes(), ", "))
}

// Codes returns every known alert code.
func Codes() []string {
	codes := make([]string, 0, len(allAlerts))
	for _, a := range allAlerts {
		codes = append(codes, a.Code)
	}
	sort.Strings(codes)
	return codes
}

// ActionAvailability is the value of a pool's AvailableActions property.
type ActionAvailability string

const (
	FullyOperational ActionAvailability = "fully_operational"
	NoIPCRequests    ActionAvailability = "no_ipc_requests"
	NoPoolChanges    ActionAvailability = "no_pool_changes"
)

// MaintenanceAlerts returns the alerts implied by the availability.
// no_pool_changes is the more restricted state and implies EM001 too.
func (a ActionAvailability) MaintenanceAlerts() []Alert {
	switch a {
	case NoIPCRequests:
		return []Alert{AlertNoIPCRequests}
	case NoPoolChanges:
		return []Alert{AlertNoIPCRequests, AlertNoPoolChanges}
	default:
		return nil
	}
}

// PoolAlerts returns the alerts for pool, sorted by code. devices should
// be the pool's block devices.
func PoolAlerts(pool objects.Pool, devices []objects.Blockdev) []Alert {
	alerts := ActionAvailability(pool.AvailableActions).MaintenanceAlerts()

	if pool.NoAllocSpace {
		alerts = append(alerts, AlertNoAllocSpace)
	}

	var grew, shrank bool
	for _, bd := range devices {
		if bd.Pool != pool.Handle || bd.NewPhysicalSize == nil {
			continue
		}
		switch {
		case *bd.NewPhysicalSize > bd.TotalPhysicalSize:
			grew = true
		case *bd.NewPhysicalSize < bd.TotalPhysicalSize:
			shrank = true
		}
	}
	if grew {
		alerts = append(alerts, AlertDeviceGrew)
	}
	if shrank {
		alerts = append(alerts, AlertDeviceShrank)
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Code < alerts[j].Code })
	return alerts
}

// CodeList joins alert codes for compact display.
func CodeList(alerts []Alert) string {
	codes := make([]string, 0, len(alerts))
	for _, a := range alerts {
		codes = append(codes, a.Code)
	}
	return strings.Join(codes, ", ")
}
