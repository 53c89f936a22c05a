package analytics

import (
	"bytes"
	"testing"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/questrelay/internal/ledger"
)

func testFootprint() *ledger.Footprint {
	contract := xdr.ContractId{0x01}
	key := xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract: xdr.ScAddress{
				Type:       xdr.ScAddressTypeScAddressTypeContract,
				ContractId: &contract,
			},
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance},
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	}
	return &ledger.Footprint{
		DiskReadBytes:  200,
		WriteBytes:     400,
		MinResourceFee: 5000,
		TransactionData: xdr.SorobanTransactionData{
			Resources: xdr.SorobanResources{
				Footprint: xdr.LedgerFootprint{ReadWrite: []xdr.LedgerKey{key}},
			},
		},
	}
}

func TestStorageGrowthReport(t *testing.T) {
	report := NewStorageGrowthReport(testFootprint())
	assert.Equal(t, int64(200), report.BeforeBytes)
	assert.Equal(t, int64(600), report.AfterBytes)
	assert.Equal(t, int64(400), report.DeltaBytes)
	require.Len(t, report.PerKeyDelta, 1)
	for _, delta := range report.PerKeyDelta {
		assert.Equal(t, int64(400), delta)
	}
}

func TestPrintStorageReport(t *testing.T) {
	var buf bytes.Buffer
	PrintStorageReport(&buf, NewStorageGrowthReport(testFootprint()), 5000)

	out := buf.String()
	assert.Contains(t, out, "Delta:  +400 bytes")
	assert.Contains(t, out, "Fee Impact: 5000 stroops")
}
