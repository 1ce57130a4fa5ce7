package utils

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		spec    string
		seconds int
		ok      bool
	}{
		{"30s", 30, true},
		{"10m", 600, true},
		{"1h", 3600, true},
		{"1d", 86400, true},
		{"7d", 604800, true},
		{"2w", 1209600, true},
		{"1mo", 2592000, true},
		{"10M", 600, true},   // 大小写无关
		{" 5m ", 300, true},  // 容忍首尾空白
		{"", 0, false},       // 空 = 永久
		{"abc", 0, false},    // 非法 = 永久
		{"10", 0, false},     // 缺单位
		{"m10", 0, false},    // 顺序颠倒
		{"10mo5s", 0, false}, // 不支持复合
		{"-5m", 0, false},    // 负数
		{"10min", 0, false},  // 未知单位
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			seconds, ok := ParseDuration(tt.spec)
			if seconds != tt.seconds || ok != tt.ok {
				t.Errorf("ParseDuration(%q) = (%d, %v), want (%d, %v)",
					tt.spec, seconds, ok, tt.seconds, tt.ok)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"", "Vĩnh viễn"},
		{"10m", "10 phút"},
		{"1h", "1 giờ"},
		{"7d", "7 ngày"},
		{"1mo", "1 tháng"},
		{"weird", "weird"}, // 无法解析时原样返回
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.spec); got != tt.want {
			t.Errorf("FormatDuration(%q) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestExpiryTime(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	if got := ExpiryTime("", now); got != nil {
		t.Errorf("permanent spec should have nil expiry, got %v", got)
	}
	if got := ExpiryTime("invalid", now); got != nil {
		t.Errorf("malformed spec should have nil expiry, got %v", got)
	}

	got := ExpiryTime("10m", now)
	if got == nil || !got.Equal(now.Add(10*time.Minute)) {
		t.Errorf("ExpiryTime(10m) = %v, want %v", got, now.Add(10*time.Minute))
	}

	got = ExpiryTime("1mo", now)
	if got == nil || !got.Equal(now.Add(2592000*time.Second)) {
		t.Errorf("ExpiryTime(1mo) = %v, want 30 days out", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if got := FormatTimestamp(ts); got != "2026-03-14 09:26:53" {
		t.Errorf("FormatTimestamp = %q", got)
	}
}
