package escalation

import (
	"testing"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/apperr"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/service"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/storage"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sanctionCall struct {
	kind     string
	guildID  string
	userID   string
	duration string
	reason   string
}

// fakeIssuer 记录制裁调用的假执行器
type fakeIssuer struct {
	calls []sanctionCall
	err   error
}

func (f *fakeIssuer) Mute(guildID, userID, durationSpec, reason string, issuer models.Issuer) error {
	f.calls = append(f.calls, sanctionCall{"mute", guildID, userID, durationSpec, reason})
	return f.err
}

func (f *fakeIssuer) Ban(guildID, userID, durationSpec, reason string, issuer models.Issuer) error {
	f.calls = append(f.calls, sanctionCall{"ban", guildID, userID, durationSpec, reason})
	return f.err
}

func newTestEscalator(t *testing.T) (*Escalator, *fakeIssuer) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Warning{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	issuer := &fakeIssuer{}
	repo := storage.NewRepository(db)
	return New(service.NewWarningService(repo), issuer), issuer
}

func TestEscalationLevels(t *testing.T) {
	esc, issuer := newTestEscalator(t)

	// 警告级别循环 1→2→3→1→2→3
	wantLevels := []int{1, 2, 3, 1, 2, 3}
	for i, want := range wantLevels {
		result, err := esc.RecordWarning("g1", "u1", "vi phạm", models.AutoIssuer(), true)
		if err != nil {
			t.Fatalf("warning %d: %v", i+1, err)
		}
		if result.Level != want {
			t.Fatalf("warning %d: level = %d, want %d", i+1, result.Level, want)
		}
		if result.Total != i+1 {
			t.Fatalf("warning %d: total = %d, want %d", i+1, result.Total, i+1)
		}
	}

	// 2级→10分钟禁言，3级→1天封禁，两轮共4次
	if len(issuer.calls) != 4 {
		t.Fatalf("sanction calls = %d, want 4", len(issuer.calls))
	}
	wantCalls := []sanctionCall{
		{"mute", "g1", "u1", "10m", "Cảnh cáo lần 2: vi phạm"},
		{"ban", "g1", "u1", "1d", "Cảnh cáo lần 3: vi phạm"},
		{"mute", "g1", "u1", "10m", "Cảnh cáo lần 2: vi phạm"},
		{"ban", "g1", "u1", "1d", "Cảnh cáo lần 3: vi phạm"},
	}
	for i, want := range wantCalls {
		if issuer.calls[i] != want {
			t.Errorf("call %d = %+v, want %+v", i, issuer.calls[i], want)
		}
	}
}

func TestEscalationResultFlags(t *testing.T) {
	esc, _ := newTestEscalator(t)

	r1, _ := esc.RecordWarning("g1", "u1", "x", models.AutoIssuer(), true)
	if r1.Sanctioned {
		t.Fatal("level 1 should not sanction")
	}

	r2, _ := esc.RecordWarning("g1", "u1", "x", models.AutoIssuer(), true)
	if !r2.Sanctioned || r2.Sanction != string(models.SanctionMute) {
		t.Fatalf("level 2 result = %+v, want mute", r2)
	}

	r3, _ := esc.RecordWarning("g1", "u1", "x", models.AutoIssuer(), true)
	if !r3.Sanctioned || r3.Sanction != string(models.SanctionBan) {
		t.Fatalf("level 3 result = %+v, want ban", r3)
	}
}

func TestEscalationCountsPerUser(t *testing.T) {
	esc, _ := newTestEscalator(t)

	esc.RecordWarning("g1", "u1", "x", models.AutoIssuer(), true)
	esc.RecordWarning("g1", "u2", "x", models.AutoIssuer(), true)
	esc.RecordWarning("g2", "u1", "x", models.AutoIssuer(), true)

	// 不同服务器、不同用户的计数相互独立
	result, err := esc.RecordWarning("g1", "u1", "x", models.AutoIssuer(), true)
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 2 || result.Level != 2 {
		t.Fatalf("result = %+v, want total 2 level 2", result)
	}
}

func TestEscalationWarningPersistsWhenSanctionFails(t *testing.T) {
	esc, issuer := newTestEscalator(t)

	esc.RecordWarning("g1", "u1", "x", models.AutoIssuer(), true)

	// 2级制裁失败，警告依然落账
	issuer.err = apperr.ErrTransient
	_, err := esc.RecordWarning("g1", "u1", "x", models.AutoIssuer(), true)
	if err == nil {
		t.Fatal("sanction failure should surface")
	}

	total, err := esc.WarningCount("g1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("warning total = %d, want 2 (warning precedes sanction)", total)
	}
}

func TestRemoveLastWarning(t *testing.T) {
	esc, _ := newTestEscalator(t)

	_, err := esc.RemoveLastWarning("g1", "u1")
	if !apperr.IsNotFound(err) {
		t.Fatalf("want NotFound on empty history, got %v", err)
	}

	esc.RecordWarning("g1", "u1", "x", models.OperatorIssuer("op1"), false)
	esc.RecordWarning("g1", "u1", "y", models.OperatorIssuer("op1"), false)

	remaining, err := esc.RemoveLastWarning("g1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 1 {
		t.Fatalf("remaining = %d, want 1", remaining)
	}

	// 撤销后再警告，级别从剩余数继续推导
	result, _ := esc.RecordWarning("g1", "u1", "z", models.AutoIssuer(), true)
	if result.Total != 2 || result.Level != 2 {
		t.Fatalf("result after pop = %+v, want total 2 level 2", result)
	}
}
