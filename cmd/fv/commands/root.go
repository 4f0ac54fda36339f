package commands

import (
	"context"
	"fmt"
	"os"

	"filevault/pkg/app"
	"filevault/pkg/codec"
	"filevault/pkg/config"
	"filevault/pkg/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// 全局应用实例，供子命令使用
	FV *app.App
)

var rootCmd = &cobra.Command{
	Use:   "fv",
	Short: "filevault: a directory-backed object store",
	Long: `filevault stores one object per file in a platform directory.
Records are written atomically and can be watched for changes.`,
	SilenceUsage: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 统一初始化 App (目录不存在时会被创建)
		var err error
		FV, err = app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize filevault: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if FV == nil {
			return nil
		}
		return FV.Close()
	},
}

// Execute 是入口
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// 在初始化时，加载配置
	cobra.OnInitialize(initConfig)

	// 1. 定义全局参数 --config
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fv/config.yaml)")

	// 2. 定义 storage.* 参数，并绑定到 Viper
	// 这样用户既可以在 yaml 里写，也可以用命令行覆盖
	rootCmd.PersistentFlags().String("storage-path", "", "Directory to store objects (implies a custom location)")
	rootCmd.PersistentFlags().String("location", "documents", "Standard location: documents, application_support, cache, app_group")
	for key, flag := range map[string]string{
		"storage.path":     "storage-path",
		"storage.location": "location",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Println("Failed to bind flag:", err)
			os.Exit(1)
		}
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Println("Config error:", err)
		os.Exit(1)
	}
}

// records 返回无类型的记录视图，命令行不知道对象的具体形状
func records() (*store.Collection[map[string]any], error) {
	if FV == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return store.NewCollection[map[string]any](FV.Store), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// printJSON 以单行 JSON 输出，与存储使用的编码无关
func printJSON(cmd *cobra.Command, v any) error {
	data, err := codec.JSON{}.Encode(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
