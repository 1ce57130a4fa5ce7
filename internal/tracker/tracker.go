package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/classifier"
)

// 行为检测阈值（固定策略常量，不对用户开放配置）
const (
	spamThreshold       = 5    // 5秒内消息数达到该值判定刷屏
	spamInterval        = 5 * time.Second
	rateLimitThreshold  = 10   // 同一窗口内达到该值触发限速（比刷屏更严的二级阈值）
	emojiThreshold      = 10   // 单条消息表情数
	mentionThreshold    = 5    // 单条消息提及数（用户+角色）
	channelHopThreshold = 5    // 最近5条消息出现的不同频道数
	duplicateThreshold  = 3    // 连续相同消息数
	maxMessageLength    = 2000 // 超长消息阈值（字符数）
	windowHorizon       = 30 * time.Second
	ringCap             = 10 // 内容环和频道环的容量上限
)

// Signals 单次跟踪产生的行为信号。
// 各信号相互独立，同一条消息可以同时触发多个。
type Signals struct {
	MessageSpam bool // 刷屏
	RateLimit   bool // 超出限速阈值
	EmojiSpam   bool // 表情轰炸
	MentionSpam bool // 提及轰炸
	ChannelHop  bool // 连续跳频道
	Duplicate   bool // 重复消息
	LongMessage bool // 超长消息
	Details     []string
}

// Any 是否有任一内容信号触发（不含 RateLimit）
func (s *Signals) Any() bool {
	return s.MessageSpam || s.EmojiSpam || s.MentionSpam ||
		s.ChannelHop || s.Duplicate || s.LongMessage
}

// TypeLabels 返回触发信号的类型标签（面向用户的越南语文案）
func (s *Signals) TypeLabels() []string {
	var labels []string
	if s.MessageSpam {
		labels = append(labels, "Spam tin nhắn")
	}
	if s.EmojiSpam {
		labels = append(labels, "Spam emoji")
	}
	if s.MentionSpam {
		labels = append(labels, "Spam mention")
	}
	if s.ChannelHop {
		labels = append(labels, "Nhảy kênh liên tục")
	}
	if s.Duplicate {
		labels = append(labels, "Tin nhắn trùng lặp")
	}
	if s.LongMessage {
		labels = append(labels, "Tin nhắn quá dài")
	}
	return labels
}

// userWindow 单个 (服务器,用户) 的滑动窗口状态。
// 时间戳按30秒视界修剪，内容环和频道环按容量截断，内存有界。
type userWindow struct {
	timestamps []time.Time
	contents   []string
	channels   []string
}

// Tracker 按 (服务器,用户) 维度的行为跟踪器
type Tracker struct {
	mu        sync.Mutex
	windows   map[string]*userWindow
	rateMarks map[string]time.Time // (服务器,用户) → 限速到期时间
	now       func() time.Time
}

// New 创建行为跟踪器
func New() *Tracker {
	return &Tracker{
		windows:   make(map[string]*userWindow),
		rateMarks: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetClock 注入时钟（测试用）
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

func key(guildID, userID string) string {
	return guildID + ":" + userID
}

// Track 记录一条消息并评估行为信号。
// 整个读改写序列持锁执行，同一用户的并发消息不会交错丢失更新。
func (t *Tracker) Track(guildID, userID, channelID, content string, mentionCount int) Signals {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	w, exists := t.windows[key(guildID, userID)]
	if !exists {
		w = &userWindow{}
		t.windows[key(guildID, userID)] = w
	}

	// 修剪：时间戳只保留30秒内，环按容量截断
	w.prune(now)

	w.timestamps = append(w.timestamps, now)
	w.contents = append(w.contents, content)
	w.channels = append(w.channels, channelID)

	// 表情/提及只看当前消息，不做窗口累计
	emojiCount := classifier.CountEmojis(content)

	var signals Signals

	recent := 0
	for _, ts := range w.timestamps {
		if now.Sub(ts) <= spamInterval {
			recent++
		}
	}

	if recent >= spamThreshold {
		signals.MessageSpam = true
		signals.Details = append(signals.Details, fmt.Sprintf("%d tin nhắn trong %ds", recent, int(spamInterval.Seconds())))
	}

	if recent >= rateLimitThreshold {
		signals.RateLimit = true
		signals.Details = append(signals.Details, fmt.Sprintf("Vượt giới hạn: %d tin nhắn trong %ds", recent, int(spamInterval.Seconds())))
	}

	if emojiCount >= emojiThreshold {
		signals.EmojiSpam = true
		signals.Details = append(signals.Details, fmt.Sprintf("%d emoji trong tin nhắn", emojiCount))
	}

	if mentionCount >= mentionThreshold {
		signals.MentionSpam = true
		signals.Details = append(signals.Details, fmt.Sprintf("%d mentions trong tin nhắn", mentionCount))
	}

	if distinct := distinctTail(w.channels, channelHopThreshold); distinct >= channelHopThreshold {
		signals.ChannelHop = true
		signals.Details = append(signals.Details, fmt.Sprintf("Nhảy %d kênh liên tục", distinct))
	}

	if duplicateTail(w.contents, duplicateThreshold) {
		signals.Duplicate = true
		signals.Details = append(signals.Details, "Gửi tin nhắn trùng lặp")
	}

	if len([]rune(content)) > maxMessageLength {
		signals.LongMessage = true
		signals.Details = append(signals.Details, fmt.Sprintf("Tin nhắn quá dài: %d ký tự", len([]rune(content))))
	}

	return signals
}

// prune 修剪窗口到有界状态
func (w *userWindow) prune(now time.Time) {
	cutoff := now.Add(-windowHorizon)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept

	if len(w.contents) > ringCap {
		w.contents = append([]string(nil), w.contents[len(w.contents)-ringCap:]...)
	}
	if len(w.channels) > ringCap {
		w.channels = append([]string(nil), w.channels[len(w.channels)-ringCap:]...)
	}
}

// distinctTail 统计尾部 n 个元素中的不同值数量
func distinctTail(list []string, n int) int {
	if len(list) < n {
		return 0
	}
	tail := list[len(list)-n:]
	seen := make(map[string]struct{}, n)
	for _, v := range tail {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// duplicateTail 尾部 n 条内容是否全部相同且非空
func duplicateTail(list []string, n int) bool {
	if len(list) < n {
		return false
	}
	tail := list[len(list)-n:]
	if tail[0] == "" {
		return false
	}
	for _, v := range tail[1:] {
		if v != tail[0] {
			return false
		}
	}
	return true
}

// IsRateLimited 检查用户是否处于限速冷却中（到期惰性清除）
func (t *Tracker) IsRateLimited(guildID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, exists := t.rateMarks[key(guildID, userID)]
	if !exists {
		return false
	}
	if t.now().Before(expiry) {
		return true
	}
	delete(t.rateMarks, key(guildID, userID))
	return false
}

// MarkRateLimited 为用户设置限速冷却
func (t *Tracker) MarkRateLimited(guildID, userID string, seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rateMarks[key(guildID, userID)] = t.now().Add(time.Duration(seconds) * time.Second)
}

// Cleanup 清理长期不活跃的窗口和已过期的限速标记（定期调用）
func (t *Tracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for k, w := range t.windows {
		w.prune(now)
		if len(w.timestamps) == 0 {
			delete(t.windows, k)
		}
	}
	for k, expiry := range t.rateMarks {
		if !now.Before(expiry) {
			delete(t.rateMarks, k)
		}
	}
}
