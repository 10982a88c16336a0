package notify

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// SnapshotSummary describes the outcome of one snapshot run for logging and
// webhook notifications.
type SnapshotSummary struct {
	Database   string
	Tables     int
	Views      int
	Rows       int
	OutputPath string
	UploadKey  string
	Size       int64
	Compressed bool
	Encrypted  bool
	Duration   time.Duration
	Success    bool
	Error      error
}

// LogSummary prints a human-readable recap of the run.
func LogSummary(s *SnapshotSummary) {
	var b strings.Builder
	if s.Success {
		b.WriteString("Snapshot succeeded")
	} else {
		b.WriteString("Snapshot FAILED")
	}
	fmt.Fprintf(&b, " for database '%s': %d table(s), %d view(s)", s.Database, s.Tables, s.Views)
	if s.Success {
		fmt.Fprintf(&b, ", %d row(s), %d bytes", s.Rows, s.Size)
		if s.UploadKey != "" {
			fmt.Fprintf(&b, " -> %s", s.UploadKey)
		} else if s.OutputPath != "" {
			fmt.Fprintf(&b, " -> %s", s.OutputPath)
		}
	} else if s.Error != nil {
		fmt.Fprintf(&b, ": %v", s.Error)
	}
	fmt.Fprintf(&b, " (took %s)", s.Duration.Round(time.Millisecond))
	log.Print(b.String())
}
