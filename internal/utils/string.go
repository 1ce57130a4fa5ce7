package utils

import (
	"strings"
	"unicode/utf8"
)

// TruncateString 安全截断字符串到指定长度（支持 UTF-8）
// maxLen 是字符数（不是字节数）
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}

	return s
}

// SanitizeString 清理字符串，移除前后空白并压缩连续空白
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// SafeUserName 安全处理用户名，限制长度并清理
func SafeUserName(name string) string {
	name = SanitizeString(name)
	return TruncateString(name, 255)
}

// SafeReason 安全处理原因文本，限制长度
func SafeReason(reason string) string {
	reason = SanitizeString(reason)
	// TEXT 类型通常最大 65535 字节，但我们限制为 1000 字符以保持合理
	return TruncateString(reason, 1000)
}
