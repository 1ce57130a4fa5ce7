package tracker

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func newTestTracker(start time.Time) (*Tracker, *time.Time) {
	t := New()
	current := start
	t.SetClock(func() time.Time { return current })
	return t, &current
}

func TestTrackMessageSpam(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	trk, clock := newTestTracker(start)

	// 4条消息在4秒内，不触发
	var signals Signals
	for i := 0; i < 4; i++ {
		*clock = start.Add(time.Duration(i) * time.Second)
		signals = trk.Track("g1", "u1", "c1", fmt.Sprintf("msg %d", i), 0)
	}
	if signals.MessageSpam {
		t.Fatal("4 messages should not trigger spam")
	}

	// 第5条在窗口内触发
	*clock = start.Add(4 * time.Second)
	signals = trk.Track("g1", "u1", "c1", "msg 5", 0)
	if !signals.MessageSpam {
		t.Fatal("5th message within 5s should trigger spam")
	}
	labels := signals.TypeLabels()
	if len(labels) == 0 || labels[0] != "Spam tin nhắn" {
		t.Fatalf("unexpected labels: %v", labels)
	}
}

func TestTrackSpamWindowBoundary(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	trk, clock := newTestTracker(start)

	// 5条消息分布在5.5秒:第一条已滑出5秒窗口
	offsets := []time.Duration{0, 1500 * time.Millisecond, 3 * time.Second, 4 * time.Second, 5500 * time.Millisecond}
	var signals Signals
	for i, off := range offsets {
		*clock = start.Add(off)
		signals = trk.Track("g1", "u1", "c1", fmt.Sprintf("m%d", i), 0)
	}
	if signals.MessageSpam {
		t.Fatal("messages spread past the window should not trigger spam")
	}
}

func TestTrackRateLimitThreshold(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	trk, clock := newTestTracker(start)

	var signals Signals
	for i := 0; i < 10; i++ {
		*clock = start.Add(time.Duration(i*400) * time.Millisecond)
		signals = trk.Track("g1", "u1", "c1", fmt.Sprintf("m%d", i), 0)
	}
	if !signals.RateLimit {
		t.Fatal("10 messages within 5s should trigger rate limit")
	}
	if !signals.MessageSpam {
		t.Fatal("rate limit volume also crosses the spam threshold")
	}
}

func TestTrackDuplicate(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	trk, clock := newTestTracker(start)

	var signals Signals
	for i := 0; i < 3; i++ {
		*clock = start.Add(time.Duration(i) * 10 * time.Second)
		signals = trk.Track("g1", "u1", "c1", "same content", 0)
	}
	if !signals.Duplicate {
		t.Fatal("3 identical messages should trigger duplicate")
	}

	// 不同内容打断连续性
	*clock = start.Add(40 * time.Second)
	trk.Track("g1", "u1", "c1", "different", 0)
	*clock = start.Add(50 * time.Second)
	signals = trk.Track("g1", "u1", "c1", "same content", 0)
	if signals.Duplicate {
		t.Fatal("duplicate streak should reset after a different message")
	}
}

func TestTrackDuplicateEmptyContent(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	trk, clock := newTestTracker(start)

	var signals Signals
	for i := 0; i < 3; i++ {
		*clock = start.Add(time.Duration(i) * 10 * time.Second)
		signals = trk.Track("g1", "u1", "c1", "", 0)
	}
	if signals.Duplicate {
		t.Fatal("empty contents must not count as duplicates")
	}
}

func TestTrackChannelHop(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	trk, clock := newTestTracker(start)

	var signals Signals
	for i := 0; i < 5; i++ {
		*clock = start.Add(time.Duration(i) * 2 * time.Second)
		signals = trk.Track("g1", "u1", fmt.Sprintf("c%d", i), fmt.Sprintf("m%d", i), 0)
	}
	if !signals.ChannelHop {
		t.Fatal("5 distinct channels in last 5 messages should trigger channel hop")
	}

	// 同一频道的连续消息不触发
	trk2, clock2 := newTestTracker(start)
	for i := 0; i < 5; i++ {
		*clock2 = start.Add(time.Duration(i) * 2 * time.Second)
		signals = trk2.Track("g1", "u1", "c1", fmt.Sprintf("m%d", i), 0)
	}
	if signals.ChannelHop {
		t.Fatal("same channel should not trigger channel hop")
	}
}

func TestTrackSingleMessageSignals(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		content string
		mention int
		check   func(Signals) bool
	}{
		{"emoji spam", strings.Repeat("😀", 10), 0, func(s Signals) bool { return s.EmojiSpam }},
		{"emoji below threshold", strings.Repeat("😀", 9), 0, func(s Signals) bool { return !s.EmojiSpam }},
		{"custom emoji spam", strings.Repeat("<:pepe:123456789> ", 10), 0, func(s Signals) bool { return s.EmojiSpam }},
		{"mention spam", "hello", 5, func(s Signals) bool { return s.MentionSpam }},
		{"mention below threshold", "hello", 4, func(s Signals) bool { return !s.MentionSpam }},
		{"oversized", strings.Repeat("ă", 2001), 0, func(s Signals) bool { return s.LongMessage }},
		{"exactly 2000 runes ok", strings.Repeat("ă", 2000), 0, func(s Signals) bool { return !s.LongMessage }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk, _ := newTestTracker(start)
			signals := trk.Track("g1", "u1", "c1", tt.content, tt.mention)
			if !tt.check(signals) {
				t.Errorf("unexpected signals: %+v", signals)
			}
		})
	}
}

func TestRateLimitMark(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	trk, clock := newTestTracker(start)

	if trk.IsRateLimited("g1", "u1") {
		t.Fatal("fresh user should not be rate limited")
	}

	trk.MarkRateLimited("g1", "u1", 60)
	if !trk.IsRateLimited("g1", "u1") {
		t.Fatal("marked user should be rate limited")
	}

	*clock = start.Add(59 * time.Second)
	if !trk.IsRateLimited("g1", "u1") {
		t.Fatal("mark should still hold at 59s")
	}

	*clock = start.Add(61 * time.Second)
	if trk.IsRateLimited("g1", "u1") {
		t.Fatal("mark should expire after 60s")
	}
}

func TestCleanup(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	trk, clock := newTestTracker(start)

	trk.Track("g1", "u1", "c1", "hello", 0)
	trk.MarkRateLimited("g1", "u2", 30)

	*clock = start.Add(5 * time.Minute)
	trk.Cleanup()

	trk.mu.Lock()
	windows, marks := len(trk.windows), len(trk.rateMarks)
	trk.mu.Unlock()
	if windows != 0 {
		t.Errorf("stale windows should be removed, got %d", windows)
	}
	if marks != 0 {
		t.Errorf("expired rate marks should be removed, got %d", marks)
	}
}
