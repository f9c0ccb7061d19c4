package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/registry"
)

var helpCommandsCmd = &cobra.Command{
	Use:   "help-commands",
	Short: "Print the command language reference",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.New(registry.Options{Logger: mdwlog.NewNop()})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reg.Help())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(helpCommandsCmd)
}
