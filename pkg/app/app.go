// pkg/app/app.go
package app

import (
	"fmt"

	"filevault/pkg/codec"
	"filevault/pkg/location"
	"filevault/pkg/logging"
	"filevault/pkg/store"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它持有所有“单例”服务
type App struct {
	Store  *store.Store
	Logger *zap.Logger
	// Dir 是解析后的存储目录
	Dir string
}

// NewApp 是工厂函数，负责组装这一台机器
// 它遵循 Viper 的配置，但不知道具体的 CLI 命令
// extra 追加在配置派生的选项之后 (测试用它注入内存文件系统)
func NewApp(extra ...store.Option) (*App, error) {
	// 1. 日志
	logger, err := logging.New(viper.GetString("log.level"), viper.GetBool("debug"))
	if err != nil {
		return nil, err
	}

	// 2. 存储位置 (Single Source of Truth)
	loc, err := locationFromConfig()
	if err != nil {
		return nil, err
	}
	resolver := location.NewResolver(
		viper.GetString("location.app_name"),
		viper.GetStringMapString("location.app_groups"),
	)

	// 3. 编码
	c, err := codec.ForFormat(
		viper.GetString("codec.format"),
		viper.GetBool("codec.pretty"),
		viper.GetBool("codec.strict_fields"),
	)
	if err != nil {
		return nil, err
	}

	policy, err := store.ParseDecodePolicy(viper.GetString("store.decode_policy"))
	if err != nil {
		return nil, err
	}

	// 4. 初始化 Store (Dependency Injection)
	opts := []store.Option{
		store.WithResolver(resolver),
		store.WithCodec(c),
		store.WithDecodePolicy(policy),
		store.WithIgnore(viper.GetStringSlice("store.ignore")...),
		store.WithInitialSignal(viper.GetBool("watch.emit_initial")),
		store.WithLogger(logger),
	}
	s, err := store.New(loc, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	return &App{
		Store:  s,
		Logger: logger,
		Dir:    s.Dir(),
	}, nil
}

// Close 释放 Store 的目录监听并刷新日志
func (a *App) Close() error {
	err := a.Store.Close()
	_ = a.Logger.Sync()
	return err
}

// locationFromConfig 把 storage.* 配置翻译成 Location
// storage.path 非空时总是表示自定义目录
func locationFromConfig() (location.Location, error) {
	if path := viper.GetString("storage.path"); path != "" {
		return location.Custom(path), nil
	}
	kind := viper.GetString("storage.location")
	var value string
	if kind == "app_group" {
		value = viper.GetString("storage.app_group")
	}
	return location.Parse(kind, value)
}
