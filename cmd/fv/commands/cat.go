package commands

import (
	"fmt"

	"filevault/pkg/codec"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <name>",
	Short: "Show a record",
	Long:  `Decode the record stored as <name> and print it as indented JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := records()
		if err != nil {
			return err
		}

		obj, err := c.Object(commandContext(cmd), args[0])
		if err != nil {
			return err
		}

		// 不管存储用的是 json 还是 cbor，都以缩进 JSON 展示
		data, err := codec.JSON{Pretty: true}.Encode(obj)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
