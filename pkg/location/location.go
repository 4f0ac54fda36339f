// Package location maps logical storage roots to absolute directories.
package location

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnresolvable 表示存储根目录无法确定
// 这是配置/编程错误，调用方应当视为致命错误，而不是重试
var ErrUnresolvable = errors.New("location unresolvable")

// DefaultExtension 是记录文件的默认扩展名
const DefaultExtension = "json"

// Kind 标识 Location 的变体
type Kind int

const (
	KindDocuments Kind = iota
	KindApplicationSupport
	KindCache
	KindAppGroup
	KindCustom
)

var kindNames = map[Kind]string{
	KindDocuments:          "documents",
	KindApplicationSupport: "application_support",
	KindCache:              "cache",
	KindAppGroup:           "app_group",
	KindCustom:             "custom",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Location 是一个逻辑存储位置 (tagged variant)
// value 只对 AppGroup (identifier) 和 Custom (path) 有意义
type Location struct {
	kind  Kind
	value string
}

func Documents() Location          { return Location{kind: KindDocuments} }
func ApplicationSupport() Location { return Location{kind: KindApplicationSupport} }
func Cache() Location              { return Location{kind: KindCache} }

// AppGroup 是多个进程共享的容器目录，由 identifier 标识
func AppGroup(identifier string) Location {
	return Location{kind: KindAppGroup, value: identifier}
}

// Custom 直接使用调用方给出的路径
func Custom(path string) Location {
	return Location{kind: KindCustom, value: path}
}

func (l Location) Kind() Kind     { return l.kind }
func (l Location) Value() string  { return l.value }
func (l Location) IsCustom() bool { return l.kind == KindCustom }
func (l Location) String() string {
	if l.value == "" {
		return l.kind.String()
	}
	return l.kind.String() + "(" + l.value + ")"
}

// Parse 把配置里的名字转换成 Location
// value 是 app_group 的 identifier 或 custom 的路径
func Parse(kind, value string) (Location, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "documents":
		return Documents(), nil
	case "application_support", "application-support":
		return ApplicationSupport(), nil
	case "cache":
		return Cache(), nil
	case "app_group", "app-group":
		if value == "" {
			return Location{}, fmt.Errorf("%w: app group identifier is required", ErrUnresolvable)
		}
		return AppGroup(value), nil
	case "custom":
		if value == "" {
			return Location{}, fmt.Errorf("%w: custom location requires a path", ErrUnresolvable)
		}
		return Custom(value), nil
	default:
		return Location{}, fmt.Errorf("%w: unknown location kind %q", ErrUnresolvable, kind)
	}
}

// Resolver 负责把 Location 解析成绝对路径
// 它只读取平台状态 (HOME, XDG 目录)，不会创建任何目录
type Resolver struct {
	// AppName 是平台根目录下的子目录名
	AppName string
	// AppGroups: identifier -> 共享容器根目录
	AppGroups map[string]string

	homeDir   func() (string, error)
	configDir func() (string, error)
	cacheDir  func() (string, error)
	getenv    func(string) string
}

// NewResolver 创建一个使用当前进程环境的 Resolver
func NewResolver(appName string, groups map[string]string) *Resolver {
	if groups == nil {
		groups = map[string]string{}
	}
	return &Resolver{
		AppName:   appName,
		AppGroups: groups,
		homeDir:   os.UserHomeDir,
		configDir: os.UserConfigDir,
		cacheDir:  os.UserCacheDir,
		getenv:    os.Getenv,
	}
}

// Resolve 返回 Location 对应的绝对目录
func (r *Resolver) Resolve(loc Location) (string, error) {
	var (
		dir string
		err error
	)

	switch loc.kind {
	case KindDocuments:
		dir, err = r.documentsDir()
	case KindApplicationSupport:
		dir, err = r.configDir()
		if err == nil {
			dir = filepath.Join(dir, r.AppName)
		}
	case KindCache:
		dir, err = r.cacheDir()
		if err == nil {
			dir = filepath.Join(dir, r.AppName)
		}
	case KindAppGroup:
		root, ok := r.AppGroups[loc.value]
		if !ok || root == "" {
			return "", fmt.Errorf("%w: unknown app group %q", ErrUnresolvable, loc.value)
		}
		dir = filepath.Join(root, "Documents")
	case KindCustom:
		if loc.value == "" {
			return "", fmt.Errorf("%w: empty custom path", ErrUnresolvable)
		}
		dir = loc.value
	default:
		return "", fmt.Errorf("%w: %s", ErrUnresolvable, loc)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnresolvable, loc, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnresolvable, loc, err)
	}
	return abs, nil
}

// MustResolve 与 Resolve 相同，但解析失败时直接 panic
func (r *Resolver) MustResolve(loc Location) string {
	dir, err := r.Resolve(loc)
	if err != nil {
		panic(err)
	}
	return dir
}

// Path 返回 <dir>/<filename>.<ext>
// 扩展名总是由这里追加，调用方不应自带扩展名
func (r *Resolver) Path(loc Location, filename, ext string) (string, error) {
	dir, err := r.Resolve(loc)
	if err != nil {
		return "", err
	}
	return FilePath(dir, filename, ext), nil
}

// FilePath 拼接记录文件路径，ext 为空时使用 DefaultExtension
func FilePath(dir, filename, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	return filepath.Join(dir, filename+"."+ext)
}

// documentsDir 优先使用 XDG_DOCUMENTS_DIR，否则 $HOME/Documents/<app>
func (r *Resolver) documentsDir() (string, error) {
	if xdg := r.getenv("XDG_DOCUMENTS_DIR"); xdg != "" {
		return filepath.Join(xdg, r.AppName), nil
	}
	home, err := r.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Documents", r.AppName), nil
}
