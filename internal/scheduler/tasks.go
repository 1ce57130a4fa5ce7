package scheduler

import (
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/database"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/service"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/tracker"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Reverser 解除制裁的能力接口，由执行器实现
type Reverser interface {
	Reverse(guildID, userID string, kind models.SanctionKind, reason string, issuer models.Issuer) error
}

func expiryReason(kind models.SanctionKind) string {
	if kind == models.SanctionBan {
		return "Hết thời hạn cấm"
	}
	return "Hết thời hạn mute"
}

// Scheduler 定时任务调度器。
// 到期解除以单次定时器为主，每分钟扫描作为兜底（定时器在进程重启后丢失）。
type Scheduler struct {
	cron      *cron.Cron
	timers    *Timers
	sanctions *service.SanctionService
	reverser  Reverser
	tracker   *tracker.Tracker
	limiter   *utils.RateLimiter
	db        *gorm.DB
	interval  string
}

// New 创建调度器
func New(timers *Timers, sanctions *service.SanctionService, reverser Reverser,
	trk *tracker.Tracker, limiter *utils.RateLimiter, db *gorm.DB, checkInterval string) *Scheduler {

	if checkInterval == "" {
		checkInterval = "*/1 * * * *"
	}
	return &Scheduler{
		cron:      cron.New(),
		timers:    timers,
		sanctions: sanctions,
		reverser:  reverser,
		tracker:   trk,
		limiter:   limiter,
		db:        db,
		interval:  checkInterval,
	}
}

// Start 启动定时任务
func (s *Scheduler) Start() error {
	// 到期制裁兜底扫描
	if _, err := s.cron.AddFunc(s.interval, s.sweepExpired); err != nil {
		return err
	}

	// 滑动窗口与限速器清理（每10分钟）
	if _, err := s.cron.AddFunc("*/10 * * * *", func() {
		s.tracker.Cleanup()
		s.limiter.CleanupOldLimiters()
	}); err != nil {
		return err
	}

	// 数据库健康检查（每5分钟）
	if _, err := s.cron.AddFunc("*/5 * * * *", s.checkDatabaseHealth); err != nil {
		return err
	}

	s.cron.Start()
	logrus.Info("⏰ 定时任务调度器已启动")
	return nil
}

// Stop 停止调度器并取消所有单次定时器
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.timers.StopAll()
	logrus.Info("⏰ 定时任务调度器已停止")
}

// Reconcile 启动时对账：已过期的立即解除，未到期的重新布防定时器。
// 进程重启会丢失内存中的定时器，台账是唯一可信来源。
func (s *Scheduler) Reconcile() error {
	records, err := s.sanctions.ActiveSanctions()
	if err != nil {
		return err
	}

	now := time.Now()
	reversed, armed := 0, 0
	for _, rec := range records {
		if rec.ExpireAt == nil {
			continue
		}
		if !rec.ExpireAt.After(now) {
			if err := s.reverser.Reverse(rec.GuildID, rec.UserID, rec.Kind,
				expiryReason(rec.Kind), models.AutoIssuer()); err != nil {
				logrus.Errorf("❌ 对账解除失败 [%s/%s]: %v", rec.GuildID, rec.UserID, err)
				continue
			}
			reversed++
		} else {
			rec := rec
			s.timers.After(Key(rec.GuildID, rec.UserID, string(rec.Kind)),
				rec.ExpireAt.Sub(now), func() {
					if err := s.reverser.Reverse(rec.GuildID, rec.UserID, rec.Kind,
						expiryReason(rec.Kind), models.AutoIssuer()); err != nil {
						logrus.Errorf("❌ 到期自动解除失败: %v", err)
					}
				})
			armed++
		}
	}

	logrus.WithFields(logrus.Fields{
		"立即解除": reversed,
		"重新布防": armed,
	}).Info("🔄 制裁对账完成")
	return nil
}

// sweepExpired 扫描并解除已过期的制裁（定时器失效时的兜底）
func (s *Scheduler) sweepExpired() {
	records, err := s.sanctions.ExpiredSanctions()
	if err != nil {
		logrus.Errorf("❌ 过期制裁扫描失败: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	for _, rec := range records {
		if err := s.reverser.Reverse(rec.GuildID, rec.UserID, rec.Kind,
			expiryReason(rec.Kind), models.AutoIssuer()); err != nil {
			logrus.Errorf("❌ 过期制裁解除失败 [%s/%s]: %v", rec.GuildID, rec.UserID, err)
		}
	}
	logrus.Infof("🧹 兜底扫描处理了 %d 条过期制裁", len(records))
}

// checkDatabaseHealth 数据库连接健康检查
func (s *Scheduler) checkDatabaseHealth() {
	if err := database.Ping(s.db); err != nil {
		logrus.Errorf("❌ 数据库健康检查失败: %v", err)
		if err := database.PingWithRetry(s.db, 3); err != nil {
			logrus.Error("🚨 数据库重连失败，请检查数据库状态")
		} else {
			logrus.Info("✅ 数据库重连成功")
		}
	}
}
