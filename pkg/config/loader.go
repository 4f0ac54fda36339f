package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"filevault/pkg/codec"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		// 如果用户指定了文件，直接使用
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：
		// 1. 当前目录
		viper.AddConfigPath(".")
		// 2. 当前目录下的 .fv
		viper.AddConfigPath(".fv")
		// 3. 用户主目录下的 .fv
		viper.AddConfigPath(filepath.Join(home, ".fv"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 3. 读取环境变量 (FV_STORAGE_PATH, FV_CODEC_FORMAT 等)
	viper.SetEnvPrefix("FV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错，格式错才是
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error config file: %w", err)
		}
		fmt.Fprintln(os.Stderr, "⚠️  No config file found, using defaults/env vars")
	} else {
		fmt.Fprintln(os.Stderr, "🔧 Using config file:", viper.ConfigFileUsed())
	}

	return nil
}

func setDefaults() {
	// 存储位置
	viper.SetDefault("storage.location", "documents")
	viper.SetDefault("storage.path", "")
	viper.SetDefault("storage.app_group", "")
	viper.SetDefault("location.app_name", "filevault")

	// 编码
	viper.SetDefault("codec.format", "json")
	viper.SetDefault("codec.pretty", codec.Debug)
	viper.SetDefault("codec.strict_fields", true)

	// store 行为
	viper.SetDefault("store.decode_policy", "strict")
	viper.SetDefault("store.ignore", []string{})
	viper.SetDefault("watch.emit_initial", true)

	// 日志
	viper.SetDefault("log.level", "info")
	viper.SetDefault("debug", false)
}
