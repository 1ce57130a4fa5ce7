package classifier

import (
	"regexp"
	"strings"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
)

// 无状态内容分类器：纯函数，无 I/O，给定文本和规则集结果完全确定。

// urlPattern 宽松的链接匹配：带协议的URL，或常见顶级域名的裸域名
var urlPattern = regexp.MustCompile(
	`(?i)https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+[^\s]*|` +
		`(?:www\.)?[-\w]+\.(?:com|net|org|io|gg|co|ru|site|gift|xyz|info|biz)[^\s]*`)

// tokenPattern Discord 凭证令牌的形状：三段点分，首段以 M/N 开头
var tokenPattern = regexp.MustCompile(`[MN][A-Za-z\d]{23,}\.[\w-]{6}\.[\w-]{27}`)

// scamPatterns 诈骗话术固定集合
var scamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)free\s*nitro`),
	regexp.MustCompile(`(?i)discord\s*nitro\s*free`),
	regexp.MustCompile(`(?i)claim\s*your\s*(?:free\s*)?(?:nitro|gift)`),
	regexp.MustCompile(`(?i)steam\s*(?:gift|free|giveaway)`),
	regexp.MustCompile(`(?i)(?:click|get)\s*(?:here|now)\s*(?:for|to)\s*(?:free|nitro)`),
	regexp.MustCompile(`(?i)airdrop`),
	regexp.MustCompile(`(?i)crypto\s*giveaway`),
}

// ExtractLinks 提取文本中的链接，按首次出现顺序返回
func ExtractLinks(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// ContainsCredentialToken 检查文本是否包含凭证令牌。
// 只用于最高严重级别的诈骗信号（token logger）。
func ContainsCredentialToken(text string) bool {
	return tokenPattern.MatchString(text)
}

// ContainsScamPhrase 检查文本是否命中任一诈骗话术
func ContainsScamPhrase(text string) bool {
	for _, pattern := range scamPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchBlockRule 返回第一条命中的规则（大小写无关的子串匹配，按规则插入顺序）。
// 未命中返回 nil。
func MatchBlockRule(text string, rules []models.BlockRule) *models.BlockRule {
	lower := strings.ToLower(text)
	for i := range rules {
		if rules[i].Pattern == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(rules[i].Pattern)) {
			return &rules[i]
		}
	}
	return nil
}

// MatchSubstring 返回第一条是 text（忽略大小写）子串的模式，未命中返回空串。
// 用于封禁链接和诈骗域名对已提取URL的匹配。
func MatchSubstring(text string, patterns []string) string {
	lower := strings.ToLower(text)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return p
		}
	}
	return ""
}
