package backup

import (
	"fmt"
	"os"
	"path/filepath"
)

// SpaceVerdict classifies the relation between estimated transfer size and
// free space at the destination.
type SpaceVerdict int

const (
	// SpaceOK indicates comfortable headroom.
	SpaceOK SpaceVerdict = iota
	// SpaceMarginal indicates free space within ~5% of the estimate.
	SpaceMarginal
	// SpaceInsufficient indicates free space below the estimate. The
	// estimate is user-supplied, so this is a hard warning rather than a
	// hard stop.
	SpaceInsufficient
)

// String returns a human-readable description of the verdict.
func (v SpaceVerdict) String() string {
	switch v {
	case SpaceMarginal:
		return "marginal"
	case SpaceInsufficient:
		return "insufficient"
	default:
		return "ok"
	}
}

// DiskSpaceReport is a derived value, recomputed fresh per check and never
// cached across sessions.
type DiskSpaceReport struct {
	AvailableBytes int64
	RequiredBytes  int64
	Verdict        SpaceVerdict
}

// marginalDivisor defines the safety-margin threshold: under 1/20 (5%)
// headroom over the estimate counts as marginal.
const marginalDivisor = 20

// CheckCapacity queries free space on the volume holding path and compares
// it with the user-estimated transfer size. When path does not exist yet
// the nearest existing ancestor is measured, since that is the volume the
// transfer will land on.
func CheckCapacity(path string, requiredBytes int64) (DiskSpaceReport, error) {
	probe, err := nearestExisting(path)
	if err != nil {
		return DiskSpaceReport{}, err
	}

	available, err := freeSpace(probe)
	if err != nil {
		return DiskSpaceReport{}, fmt.Errorf("query free space at %s: %w", probe, err)
	}

	report := DiskSpaceReport{
		AvailableBytes: available,
		RequiredBytes:  requiredBytes,
		Verdict:        SpaceOK,
	}
	switch {
	case requiredBytes <= 0:
		// Nothing meaningful to compare against.
	case available < requiredBytes:
		report.Verdict = SpaceInsufficient
	case available < requiredBytes+requiredBytes/marginalDivisor:
		report.Verdict = SpaceMarginal
	}
	return report, nil
}

// nearestExisting walks up from path until it finds an existing directory.
func nearestExisting(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	for current := abs; ; {
		if _, err := os.Stat(current); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		current = parent
	}
}
