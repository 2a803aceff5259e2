package precheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jbweber/stratctl/internal/objects"
)

// Violation is an inconsistency found by Audit.
type Violation struct {
	Subject string
	Message string
}

func (v Violation) String() string {
	return v.Subject + ": " + v.Message
}

// Audit checks a snapshot for states the daemon should never publish:
// a device node owned by more than one block device object, objects
// that refer to a missing pool, and pool names used more than once.
// Violations are sorted by subject.
func Audit(snap *objects.Snapshot) []Violation {
	poolNames := objects.PoolNames(snap)
	var violations []Violation

	byName := make(map[string]int)
	for _, name := range poolNames {
		byName[name]++
	}
	for name, n := range byName {
		if n > 1 {
			violations = append(violations, Violation{
				Subject: "pool " + name,
				Message: fmt.Sprintf("name is used by %d pools", n),
			})
		}
	}

	owners := make(map[string][]string)
	for h, props := range objects.Blockdevs(nil).Search(snap) {
		bd := objects.NewBlockdev(h, props)
		name, ok := poolNames[bd.Pool]
		if !ok {
			violations = append(violations, Violation{
				Subject: "blockdev " + bd.Devnode,
				Message: fmt.Sprintf("refers to unknown pool %s", bd.Pool),
			})
			name = string(bd.Pool)
		}
		owners[bd.Devnode] = append(owners[bd.Devnode], fmt.Sprintf("%s tier of pool %s", bd.Tier, name))
	}
	for devnode, places := range owners {
		if len(places) > 1 {
			sort.Strings(places)
			violations = append(violations, Violation{
				Subject: "blockdev " + devnode,
				Message: "in use in more than one place: " + strings.Join(places, "; "),
			})
		}
	}

	for h, props := range objects.Filesystems(nil).Search(snap) {
		fs := objects.NewFilesystem(h, props)
		if _, ok := poolNames[fs.Pool]; !ok {
			violations = append(violations, Violation{
				Subject: "filesystem " + fs.Name,
				Message: fmt.Sprintf("refers to unknown pool %s", fs.Pool),
			})
		}
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Subject != violations[j].Subject {
			return violations[i].Subject < violations[j].Subject
		}
		return violations[i].Message < violations[j].Message
	})
	return violations
}
