package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store directory",
	Long:  `Resolve the configured location and create its directory if it does not exist yet.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if FV == nil {
			return fmt.Errorf("app not initialized")
		}

		names, err := FV.Store.Names(commandContext(cmd))
		if err != nil {
			return err
		}
		if len(names) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠️  filevault store already exists in %s (%d records)\n", FV.Dir, len(names))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Initialized empty filevault store in %s\n", FV.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
