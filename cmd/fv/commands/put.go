package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <name> [file|-]",
	Short: "Store a record",
	Long: `Read a record from a file (or stdin when omitted or "-"), check that it
decodes with the store's codec and save it atomically as <name>.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := records()
		if err != nil {
			return err
		}

		// 1. 读取输入
		var r io.Reader = cmd.InOrStdin()
		if len(args) == 2 && args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		// 2. 解码校验，再按 store 的编码重新写出
		obj, err := c.Decode(data)
		if err != nil {
			return fmt.Errorf("input is not a valid record: %w", err)
		}
		if _, err := c.Save(commandContext(cmd), obj, args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Saved %s\n", FV.Store.Path(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
