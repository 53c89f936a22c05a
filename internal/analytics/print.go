package analytics

import (
	"fmt"
	"io"
)

func PrintStorageReport(w io.Writer, report *StorageGrowthReport, fee int64) {
	fmt.Fprintln(w, "📦 Contract Storage Growth Report")
	fmt.Fprintln(w, "--------------------------------")
	fmt.Fprintf(w, "Before: %d bytes\n", report.BeforeBytes)
	fmt.Fprintf(w, "After:  %d bytes\n", report.AfterBytes)
	fmt.Fprintf(w, "Delta:  %+d bytes\n", report.DeltaBytes)
	fmt.Fprintf(w, "Fee Impact: %d stroops\n\n", fee)

	if len(report.PerKeyDelta) == 0 {
		return
	}
	fmt.Fprintln(w, "Per-Key Changes (estimated):")
	for key, delta := range report.PerKeyDelta {
		if delta != 0 {
			fmt.Fprintf(w, "  %s: %+d bytes\n", key, delta)
		}
	}
}
