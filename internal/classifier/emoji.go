package classifier

import (
	"regexp"
)

// emojiPattern 自定义表情 <a?:name:id> 或常见 Unicode 表情区段
var emojiPattern = regexp.MustCompile(
	`<a?:\w+:\d+>|[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}]`)

// CountEmojis 统计单条消息中的表情数量
func CountEmojis(text string) int {
	return len(emojiPattern.FindAllString(text, -1))
}
