package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	lsObjects bool
	lsLenient bool
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List records",
	Long: `List record names in the store directory. With --objects every record is
decoded and printed as one JSON line; --lenient skips records that fail to decode.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := records()
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)

		if !lsObjects {
			names, err := FV.Store.Names(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}

		objects := c.Objects
		if lsLenient {
			objects = c.ObjectsLenient
		}
		all, err := objects(ctx)
		if err != nil {
			return err
		}
		for _, obj := range all {
			if err := printJSON(cmd, obj); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVar(&lsObjects, "objects", false, "decode and print every record")
	lsCmd.Flags().BoolVar(&lsLenient, "lenient", false, "skip records that fail to decode")
	rootCmd.AddCommand(lsCmd)
}
