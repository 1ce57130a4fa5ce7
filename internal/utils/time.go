package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// 时长语法：^\d+(s|m|h|d|w|mo)$，如 "10m"、"7d"、"1mo"
var durationRegex = regexp.MustCompile(`^(\d+)(s|m|h|d|w|mo)$`)

// 各单位对应秒数
var durationMultipliers = map[string]int{
	"s":  1,
	"m":  60,
	"h":  3600,
	"d":  86400,
	"w":  604800,
	"mo": 2592000,
}

// 各单位的越南语显示名称（面向用户的文案沿用越南语）
var durationNames = map[string]string{
	"s":  "giây",
	"m":  "phút",
	"h":  "giờ",
	"d":  "ngày",
	"w":  "tuần",
	"mo": "tháng",
}

// ParseDuration 解析时长字符串为秒数。
// 全函数：空字符串或无法识别的格式返回 (0, false)，表示永久（无过期）。
func ParseDuration(spec string) (int, bool) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" {
		return 0, false
	}

	match := durationRegex.FindStringSubmatch(spec)
	if match == nil {
		return 0, false
	}

	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}

	return value * durationMultipliers[match[2]], true
}

// IsDurationSpec 判断字符串是否为合法的时长格式
func IsDurationSpec(spec string) bool {
	_, ok := ParseDuration(spec)
	return ok
}

// FormatDuration 格式化时长字符串为显示文本
func FormatDuration(spec string) string {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" {
		return "Vĩnh viễn"
	}

	match := durationRegex.FindStringSubmatch(spec)
	if match == nil {
		return spec
	}

	return fmt.Sprintf("%s %s", match[1], durationNames[match[2]])
}

// ExpiryTime 根据时长字符串计算过期时间，永久返回 nil
func ExpiryTime(spec string, now time.Time) *time.Time {
	seconds, ok := ParseDuration(spec)
	if !ok {
		return nil
	}
	expiry := now.Add(time.Duration(seconds) * time.Second)
	return &expiry
}

// FormatRemainingTime 格式化剩余时间
func FormatRemainingTime(expireAt time.Time) string {
	remaining := time.Until(expireAt)
	if remaining <= 0 {
		return "Đã hết hạn"
	}

	seconds := int(remaining.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d giây", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d phút", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d giờ", seconds/3600)
	default:
		return fmt.Sprintf("%d ngày", seconds/86400)
	}
}

// FormatTimestamp 格式化时间戳
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
