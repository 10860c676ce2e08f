package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mirbyte/androidArchiver/internal/util"
	"github.com/mirbyte/androidArchiver/pkg/adb"
)

// CompletionMarkerName is the marker file written into the destination
// after a successful backup.
const CompletionMarkerName = "backup_completed.txt"

// Summary describes a finished session for the presentation layer.
type Summary struct {
	State        SessionState
	Device       adb.DeviceInfo
	Source       string
	Destination  string
	Bytes        int64
	Files        int
	SkippedFiles int
	Elapsed      time.Duration
	// FailureCause is meaningful only when State is SessionFailed.
	FailureCause FailureCause
}

// WriteCompletionMarker records the backup outcome in the destination.
// Best effort; the backup itself is already complete when this runs.
func WriteCompletionMarker(s Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Backup completed on %s\n", time.Now().Format("2006-01-02_15-04-05"))
	fmt.Fprintf(&b, "Device: %s %s (serial %s)\n", s.Device.Manufacturer, s.Device.Model, s.Device.SerialNumber)
	fmt.Fprintf(&b, "Source: %s\n", s.Source)
	fmt.Fprintf(&b, "Total files: %d\n", s.Files)
	fmt.Fprintf(&b, "Total size: %s\n", util.FormatSize(s.Bytes))
	fmt.Fprintf(&b, "Elapsed time: %s\n", util.FormatDuration(s.Elapsed))
	if s.SkippedFiles > 0 {
		fmt.Fprintf(&b, "Skipped %d permission-protected entries (see %s)\n", s.SkippedFiles, ErrorLogName)
	}
	return os.WriteFile(filepath.Join(s.Destination, CompletionMarkerName), []byte(b.String()), 0o644)
}
