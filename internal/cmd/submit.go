package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dotandev/questrelay/internal/journal"
	"github.com/dotandev/questrelay/internal/ledger"
	"github.com/dotandev/questrelay/internal/scval"
)

var submitCmd = &cobra.Command{
	Use:   "submit [signed-envelope|@file|-]",
	Short: "Submit an externally-signed envelope and wait for confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		envelope, err := readEnvelope(args[0])
		if err != nil {
			return err
		}

		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()

		svc := newServices()
		ctx := cmd.Context()

		metered, err := ledger.ResourceMetered(envelope)
		if err != nil {
			return err
		}
		kind := journal.KindSimple
		if metered {
			kind = journal.KindMetered
		}

		if metered && isatty.IsTerminal(os.Stderr.Fd()) {
			bar := progressbar.NewOptions(cfg.PollAttempts,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("confirming"),
				progressbar.OptionShowCount(),
			)
			svc.submitter.PollHook = func(attempt, total int) { bar.Set(attempt) }
			defer bar.Finish()
		}

		result, err := svc.submitter.Submit(ctx, envelope)
		if err != nil {
			recordFailure(ctx, j, err)
			return err
		}

		if jerr := j.Record(ctx, result.Hash, kind); jerr != nil {
			logger.Warn().Err(jerr).Msg("journal write failed")
		}
		if jerr := j.Update(ctx, result.Hash, journal.StatusSuccess, ""); jerr != nil {
			logger.Warn().Err(jerr).Msg("journal write failed")
		}

		fmt.Fprintln(os.Stdout, result.Hash)
		if result.ReturnValue != nil {
			decoded, derr := scval.Decode(*result.ReturnValue)
			if derr != nil {
				logger.Warn().Err(derr).Msg("return value did not decode")
				return nil
			}
			out, _ := json.MarshalIndent(decoded, "", "  ")
			fmt.Fprintln(os.Stdout, string(out))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

// recordFailure journals terminal outcomes that still carry a hash, so a
// timed-out submission can be resolved later by `status`.
func recordFailure(ctx context.Context, j *journal.Journal, err error) {
	var timeout *ledger.ConfirmationTimeoutError
	if errors.As(err, &timeout) {
		if jerr := j.Record(ctx, timeout.Hash, journal.KindMetered); jerr == nil {
			j.Update(ctx, timeout.Hash, journal.StatusTimeout, "")
		}
		fmt.Fprintf(os.Stderr, "unconfirmed, not rejected: run `questrelay status %s` later\n", timeout.Hash)
		return
	}
	var failed *ledger.SubmissionFailedError
	if errors.As(err, &failed) && failed.Hash != "" {
		if jerr := j.Record(ctx, failed.Hash, journal.KindMetered); jerr == nil {
			j.Update(ctx, failed.Hash, journal.StatusFailed, failed.ResultXDR)
		}
	}
}

func readEnvelope(arg string) (string, error) {
	switch {
	case arg == "-":
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "reading envelope from stdin")
		}
		return strings.TrimSpace(string(raw)), nil
	case strings.HasPrefix(arg, "@"):
		raw, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", errors.Wrap(err, "reading envelope file")
		}
		return strings.TrimSpace(string(raw)), nil
	default:
		return arg, nil
	}
}
