package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotandev/questrelay/internal/scval"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <base64-scval>",
	Short: "Decode a typed contract value into JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		decoded, err := scval.DecodeBase64(args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(decoded, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
