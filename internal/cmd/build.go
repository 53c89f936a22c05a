package cmd

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dotandev/questrelay/internal/analytics"
	"github.com/dotandev/questrelay/internal/ledger"
)

var buildFlags struct {
	source   string
	contract string
	function string
	args     []string
	expiry   time.Duration
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build, simulate and assemble an unsigned contract invocation",
	Long: `Builds an unsigned envelope invoking a contract function, simulates it
for a resource estimate, and prints the assembled submission-ready
envelope as base64. Sign it externally, then pass it to "submit".

Arguments are tagged as tag:value, e.g. --arg u64:1 --arg address:G...`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		args, err := parseArgs(buildFlags.args)
		if err != nil {
			return err
		}

		svc := newServices()
		ctx := cmd.Context()

		tx, err := svc.builder.BuildInvoke(ctx, ledger.BuildRequest{
			Source:   buildFlags.source,
			Contract: buildFlags.contract,
			Function: buildFlags.function,
			Args:     args,
			Expiry:   buildFlags.expiry,
		})
		if err != nil {
			return err
		}

		fp, err := svc.simulator.Simulate(ctx, tx)
		if err != nil {
			return err
		}

		assembled, err := ledger.Assemble(tx, fp)
		if err != nil {
			return err
		}

		analytics.PrintStorageReport(os.Stderr, analytics.NewStorageGrowthReport(fp), fp.MinResourceFee)

		envelope, err := assembled.Base64()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, envelope)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildFlags.source, "source", "", "source account address (G...)")
	buildCmd.Flags().StringVar(&buildFlags.contract, "contract", "", "target contract address (C...)")
	buildCmd.Flags().StringVar(&buildFlags.function, "function", "", "contract function name")
	buildCmd.Flags().StringArrayVar(&buildFlags.args, "arg", nil, "positional argument as tag:value (repeatable)")
	buildCmd.Flags().DurationVar(&buildFlags.expiry, "expiry", 0, "envelope validity window (default 5m)")
	buildCmd.MarkFlagRequired("source")
	buildCmd.MarkFlagRequired("contract")
	buildCmd.MarkFlagRequired("function")
	rootCmd.AddCommand(buildCmd)
}

// parseArgs converts tag:value pairs into tagged arguments. The tag is
// mandatory; nothing is guessed from the value's shape.
func parseArgs(raw []string) ([]ledger.Arg, error) {
	args := make([]ledger.Arg, 0, len(raw))
	for i, pair := range raw {
		arg, err := parseArg(pair)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		args = append(args, arg)
	}
	return args, nil
}

func parseArg(pair string) (ledger.Arg, error) {
	tag, value, found := strings.Cut(pair, ":")
	if !found && tag != string(ledger.TagVoid) {
		return ledger.Arg{}, errors.Errorf("%q is not tag:value", pair)
	}
	switch ledger.Tag(tag) {
	case ledger.TagVoid:
		return ledger.Void(), nil
	case ledger.TagBool:
		switch value {
		case "true":
			return ledger.Bool(true), nil
		case "false":
			return ledger.Bool(false), nil
		}
		return ledger.Arg{}, errors.Errorf("bool wants true or false, got %q", value)
	case ledger.TagU32:
		v, err := parseUint(value, 32)
		return ledger.U32(uint32(v)), err
	case ledger.TagU64:
		v, err := parseUint(value, 64)
		return ledger.U64(v), err
	case ledger.TagI64:
		var v int64
		_, err := fmt.Sscanf(value, "%d", &v)
		return ledger.I64(v), errors.Wrapf(err, "parsing %q", value)
	case ledger.TagU128:
		return parseU128(value)
	case ledger.TagString:
		return ledger.String(value), nil
	case ledger.TagSymbol:
		return ledger.Symbol(value), nil
	case ledger.TagAddress:
		return ledger.Address(value), nil
	case ledger.TagBytes:
		raw, err := hex.DecodeString(value)
		return ledger.Bytes(raw), errors.Wrapf(err, "parsing %q as hex", value)
	default:
		return ledger.Arg{}, errors.Errorf("unknown tag %q", tag)
	}
}

func parseUint(value string, bits int) (uint64, error) {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > bits {
		return 0, errors.Errorf("%q does not fit an unsigned %d-bit integer", value, bits)
	}
	return n.Uint64(), nil
}

// parseU128 accepts a decimal value up to 2^128-1 and splits it into
// high/low 64-bit components.
func parseU128(value string) (ledger.Arg, error) {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 128 {
		return ledger.Arg{}, errors.Errorf("%q does not fit an unsigned 128-bit integer", value)
	}
	lo := new(big.Int).And(n, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(n, 64)
	return ledger.U128(hi.Uint64(), lo.Uint64()), nil
}
