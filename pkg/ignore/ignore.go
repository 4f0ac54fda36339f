package ignore

import (
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// defaultRules 强制生效，用户规则只能追加
var defaultRules = []string{
	// --- 隐藏文件 (包括原子写入的临时文件 .<name>~xxxx) ---
	".*",

	// --- 编辑器/系统垃圾文件 ---
	"*~",
	"*.swp",
	"Thumbs.db",
}

// Matcher 封装了忽略逻辑
// 它负责判断目录里的一个条目是否应该从 files() 的结果中排除
type Matcher struct {
	ignorer *gitignore.GitIgnore
}

// NewMatcher 用默认规则加上 extra (gitignore 语法) 初始化匹配器
func NewMatcher(extra ...string) *Matcher {
	rules := make([]string, 0, len(defaultRules)+len(extra))
	rules = append(rules, defaultRules...)
	for _, line := range extra {
		if line = strings.TrimSpace(line); line != "" {
			rules = append(rules, line)
		}
	}
	return &Matcher{ignorer: gitignore.CompileIgnoreLines(rules...)}
}

// Matches 检查给定的文件名是否匹配忽略规则
// 返回: true 表示应该忽略 (Skip), false 表示应该保留 (Keep)
func (m *Matcher) Matches(name string) bool {
	if m == nil || m.ignorer == nil {
		return false
	}
	return m.ignorer.MatchesPath(name)
}
