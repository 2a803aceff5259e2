package stratisd

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/jbweber/stratctl/internal/failure"
)

// CheckVersion verifies that version lies in [MinimumVersion, MaximumVersion).
func CheckVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("failed to parse stratisd version %q: %w", version, err)
	}

	constraint, err := semver.NewConstraint(fmt.Sprintf(">= %s, < %s", MinimumVersion, MaximumVersion))
	if err != nil {
		return fmt.Errorf("failed to build version constraint: %w", err)
	}

	if !constraint.Check(v) {
		return &failure.VersionError{
			Found:   version,
			Minimum: MinimumVersion,
			Maximum: MaximumVersion,
		}
	}

	return nil
}
