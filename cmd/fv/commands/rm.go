package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <name...>",
	Short: "Delete records",
	Long:  `Delete the files backing the named records. Missing records are an error.`,
	Args:  cobra.MinimumNArgs(1), // 至少指定一个
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := records()
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		count := 0
		for _, name := range args {
			if err := c.Delete(ctx, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed: %s\n", name)
			count++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Removed %d records.\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
