package service

import (
	"testing"
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/apperr"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/storage"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.GuildPolicy{},
		&models.Warning{},
		&models.Sanction{},
		&models.BlockRule{},
		&models.Operator{},
		&models.OperationLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return storage.NewRepository(db)
}

func TestWarningAppendAndPop(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewWarningService(repo)

	for i := 1; i <= 3; i++ {
		total, err := svc.Append("g1", "u1", models.AutoIssuer(), "spam", true)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if total != i {
			t.Fatalf("append %d: total = %d, want %d", i, total, i)
		}
	}

	// 其他用户不受影响
	if total, _ := svc.CountForUser("g1", "u2"); total != 0 {
		t.Fatalf("u2 total = %d, want 0", total)
	}

	remaining, err := svc.PopLast("g1", "u1")
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("remaining = %d, want 2", remaining)
	}
}

func TestWarningPopLastEmpty(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewWarningService(repo)

	_, err := svc.PopLast("g1", "nobody")
	if !apperr.IsNotFound(err) {
		t.Fatalf("want NotFound, got %v", err)
	}
}

func TestWarningPopIsLIFO(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewWarningService(repo)

	svc.Append("g1", "u1", models.AutoIssuer(), "first", true)
	svc.Append("g1", "u1", models.OperatorIssuer("op1"), "second", false)

	if _, err := svc.PopLast("g1", "u1"); err != nil {
		t.Fatalf("pop: %v", err)
	}

	list, err := svc.ListForUser("g1", "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Reason != "first" {
		t.Fatalf("want only the first warning left, got %+v", list)
	}
}

func TestSanctionLastWriteWins(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewSanctionService(repo)
	base := time.Now()
	svc.now = func() time.Time { return base }

	exp1 := base.Add(10 * time.Minute)
	if _, err := svc.Record("g1", "u1", models.SanctionMute, models.AutoIssuer(), "first", "10m", &exp1); err != nil {
		t.Fatalf("record 1: %v", err)
	}

	exp2 := base.Add(time.Hour)
	if _, err := svc.Record("g1", "u1", models.SanctionMute, models.AutoIssuer(), "second", "1h", &exp2); err != nil {
		t.Fatalf("record 2: %v", err)
	}

	active, err := svc.GetActive("g1", "u1", models.SanctionMute)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active == nil || active.Reason != "second" {
		t.Fatalf("want the second record active, got %+v", active)
	}

	// 只剩一条生效记录
	all, _ := svc.ActiveSanctions()
	if len(all) != 1 {
		t.Fatalf("active count = %d, want 1", len(all))
	}
}

func TestSanctionLiftIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewSanctionService(repo)

	if _, err := svc.Record("g1", "u1", models.SanctionBan, models.OperatorIssuer("op1"), "rule break", "", nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	lifted, err := svc.Lift("g1", "u1", models.SanctionBan, "appeal accepted", "op2")
	if err != nil || !lifted {
		t.Fatalf("first lift = (%v, %v), want (true, nil)", lifted, err)
	}

	lifted, err = svc.Lift("g1", "u1", models.SanctionBan, "appeal accepted", "op2")
	if err != nil {
		t.Fatalf("second lift errored: %v", err)
	}
	if lifted {
		t.Fatal("second lift should be a no-op")
	}
}

func TestSanctionExpiredScan(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewSanctionService(repo)
	base := time.Now()
	svc.now = func() time.Time { return base }

	past := base.Add(-time.Minute)
	future := base.Add(time.Hour)
	svc.Record("g1", "u1", models.SanctionMute, models.AutoIssuer(), "expired one", "10m", &past)
	svc.Record("g1", "u2", models.SanctionMute, models.AutoIssuer(), "still running", "1h", &future)
	svc.Record("g1", "u3", models.SanctionBan, models.AutoIssuer(), "permanent", "", nil)

	expired, err := svc.ExpiredSanctions()
	if err != nil {
		t.Fatalf("expired scan: %v", err)
	}
	if len(expired) != 1 || expired[0].UserID != "u1" {
		t.Fatalf("want only u1 expired, got %+v", expired)
	}

	// 已过期记录不再视为生效
	active, _ := svc.GetActive("g1", "u1", models.SanctionMute)
	if active != nil {
		t.Fatalf("expired sanction should not be active, got %+v", active)
	}
}

func TestPolicyIsBypassed(t *testing.T) {
	policy := &Policy{
		BypassUsers:    []string{"u1"},
		BypassRoles:    []string{"r1"},
		BypassChannels: []string{"c1"},
	}

	tests := []struct {
		name      string
		userID    string
		channelID string
		roleIDs   []string
		isAdmin   bool
		want      bool
	}{
		{"admin always bypasses", "x", "x", nil, true, true},
		{"bypassed user", "u1", "c9", nil, false, true},
		{"bypassed channel", "u9", "c1", nil, false, true},
		{"bypassed role", "u9", "c9", []string{"r2", "r1"}, false, true},
		{"no match", "u9", "c9", []string{"r2"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.IsBypassed(tt.userID, tt.channelID, tt.roleIDs, tt.isAdmin); got != tt.want {
				t.Errorf("IsBypassed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicyBypassRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewPolicyService(repo)

	if err := svc.SetBypass("g1", "user", "u1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	// 重复添加不产生重复项
	if err := svc.SetBypass("g1", "user", "u1"); err != nil {
		t.Fatalf("set again: %v", err)
	}

	policy, err := svc.Get("g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(policy.BypassUsers) != 1 || policy.BypassUsers[0] != "u1" {
		t.Fatalf("bypass users = %v, want [u1]", policy.BypassUsers)
	}

	if err := svc.ClearBypass("g1", "user", "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	policy, _ = svc.Get("g1")
	if len(policy.BypassUsers) != 0 {
		t.Fatalf("bypass users after clear = %v, want empty", policy.BypassUsers)
	}
}

func TestPolicyInvalidBypassKind(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewPolicyService(repo)

	if err := svc.SetBypass("g1", "emoji", "x"); !apperr.IsInvalidInput(err) {
		t.Fatalf("want InvalidInput, got %v", err)
	}
}

func TestPolicyMissingGuild(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewPolicyService(repo)

	policy, err := svc.Get("unknown")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if policy.LogChannelID != "" || len(policy.BypassUsers) != 0 {
		t.Fatalf("missing guild should yield empty policy, got %+v", policy)
	}
}

func TestPolicyCorruptColumnDegrades(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewPolicyService(repo)

	// 直接写入损坏的JSON列
	row := models.GuildPolicy{GuildID: "g1", BypassUsers: "{not json", BypassRoles: "[]", BypassChannels: "[]"}
	if err := repo.DB().Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	policy, err := svc.Get("g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(policy.BypassUsers) != 0 {
		t.Fatalf("corrupt column should decode to empty, got %v", policy.BypassUsers)
	}
}

func TestOperatorLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewOperatorService(repo)

	ok, err := svc.IsAuthorized("u1")
	if err != nil || ok {
		t.Fatalf("fresh user authorized = (%v, %v), want (false, nil)", ok, err)
	}

	if err := svc.Add("u1", "alice", "author"); err != nil {
		t.Fatalf("add: %v", err)
	}
	// 重复添加幂等
	if err := svc.Add("u1", "alice", "author"); err != nil {
		t.Fatalf("add again: %v", err)
	}

	ok, _ = svc.IsAuthorized("u1")
	if !ok {
		t.Fatal("added operator should be authorized")
	}

	ops, _ := svc.List()
	if len(ops) != 1 {
		t.Fatalf("operator count = %d, want 1", len(ops))
	}

	if err := svc.Remove("u1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ok, _ = svc.IsAuthorized("u1")
	if ok {
		t.Fatal("removed operator should not be authorized")
	}
}

func TestBlocklistOrdering(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewBlocklistService(repo)

	rules := []models.BlockRule{
		{Kind: models.BlockWord, Pattern: "first", Action: models.ActionWarn},
		{Kind: models.BlockWord, Pattern: "second", Action: models.ActionMute, Duration: "10m"},
		{Kind: models.BlockLink, Pattern: "bad.site", Action: models.ActionWarn},
		{Kind: models.BlockScamDomain, Pattern: "scam.gift", Action: models.ActionBan, Duration: "7d"},
	}
	for i := range rules {
		if err := svc.Add(&rules[i]); err != nil {
			t.Fatalf("add rule %d: %v", i, err)
		}
	}

	words, err := svc.WordRules()
	if err != nil {
		t.Fatalf("word rules: %v", err)
	}
	if len(words) != 2 || words[0].Pattern != "first" || words[1].Pattern != "second" {
		t.Fatalf("word rules out of order: %+v", words)
	}

	links, _ := svc.LinkPatterns()
	if len(links) != 1 || links[0] != "bad.site" {
		t.Fatalf("link patterns = %v", links)
	}

	domains, _ := svc.ScamDomains()
	if len(domains) != 1 || domains[0] != "scam.gift" {
		t.Fatalf("scam domains = %v", domains)
	}
}
