package cmd

import (
	"fmt"
	"os"

	goversion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// minNodeVersion is the oldest Soroban RPC release whose wire responses
// this service's codec understands.
const minNodeVersion = ">= 21.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show versions and check the configured RPC node",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintf(os.Stdout, "questrelay %s\n", Version)

		svc := newServices()
		ctx := cmd.Context()

		health, err := svc.node.GetHealth(ctx)
		if err != nil {
			return errors.Wrap(err, "node health check")
		}
		info, err := svc.node.GetVersionInfo(ctx)
		if err != nil {
			return errors.Wrap(err, "node version check")
		}
		fmt.Fprintf(os.Stdout, "node %s (protocol %d, %s)\n", info.Version, info.ProtocolVersion, health.Status)

		nodeVersion, err := goversion.NewVersion(info.Version)
		if err != nil {
			return errors.Wrapf(err, "parsing node version %q", info.Version)
		}
		constraint, err := goversion.NewConstraint(minNodeVersion)
		if err != nil {
			return err
		}
		if !constraint.Check(nodeVersion) {
			return errors.Errorf("node version %s is below the supported minimum (%s)", info.Version, minNodeVersion)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
