package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotandev/questrelay/internal/journal"
	"github.com/dotandev/questrelay/internal/rpc"
	"github.com/dotandev/questrelay/internal/scval"
)

var statusCmd = &cobra.Command{
	Use:   "status [hash]",
	Short: "Re-query a submitted transaction by hash",
	Long: `With a hash, queries the transaction's current state and updates the
local journal. Without one, lists journal entries still awaiting a
terminal state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()
		ctx := cmd.Context()

		if len(args) == 0 {
			entries, err := j.Unresolved(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(os.Stdout, "no unresolved submissions")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(os.Stdout, "%s  %-8s %s\n", e.Hash, e.Status, e.SubmittedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		}

		hash := args[0]
		svc := newServices()
		resp, err := svc.node.GetTransaction(ctx, hash)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, resp.Status)
		switch resp.Status {
		case rpc.StatusSuccess:
			j.Update(ctx, hash, journal.StatusSuccess, "")
			if resp.ReturnValueXDR != "" {
				decoded, derr := scval.DecodeBase64(resp.ReturnValueXDR)
				if derr != nil {
					logger.Warn().Err(derr).Msg("return value did not decode")
					return nil
				}
				out, _ := json.MarshalIndent(decoded, "", "  ")
				fmt.Fprintln(os.Stdout, string(out))
			}
		case rpc.StatusFailed:
			j.Update(ctx, hash, journal.StatusFailed, resp.ResultXDR)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
