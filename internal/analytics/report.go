// Package analytics derives contract storage growth figures from a
// simulation's resource footprint, so callers can see what an invocation
// will cost in ledger rent before signing it.
package analytics

import (
	"encoding/base64"

	"github.com/stellar/go/xdr"

	"github.com/dotandev/questrelay/internal/ledger"
)

type StorageGrowthReport struct {
	BeforeBytes int64
	AfterBytes  int64
	DeltaBytes  int64
	// PerKeyDelta attributes the write delta across the read-write ledger
	// keys. The footprint only reports totals, so the split is an even
	// estimate, not a measurement.
	PerKeyDelta map[string]int64
}

// NewStorageGrowthReport builds a report from one simulation footprint.
func NewStorageGrowthReport(fp *ledger.Footprint) *StorageGrowthReport {
	report := &StorageGrowthReport{
		BeforeBytes: int64(fp.DiskReadBytes),
		AfterBytes:  int64(fp.DiskReadBytes) + int64(fp.WriteBytes),
		DeltaBytes:  int64(fp.WriteBytes),
		PerKeyDelta: map[string]int64{},
	}

	rw := fp.TransactionData.Resources.Footprint.ReadWrite
	if len(rw) == 0 {
		return report
	}
	share := report.DeltaBytes / int64(len(rw))
	for _, key := range rw {
		report.PerKeyDelta[keyName(key)] = share
	}
	return report
}

func keyName(key xdr.LedgerKey) string {
	raw, err := key.MarshalBinary()
	if err != nil {
		return key.Type.String()
	}
	name := base64.StdEncoding.EncodeToString(raw)
	if len(name) > 16 {
		name = name[:16] + "…"
	}
	return key.Type.String() + " " + name
}
