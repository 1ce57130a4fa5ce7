package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/bot"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/config"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/database"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/engine"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/escalation"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/executor"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/platform"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/scheduler"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/service"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/storage"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/tracker"
	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	if err := utils.InitLogger(); err != nil {
		fmt.Printf("日志初始化失败: %v\n", err)
		os.Exit(1)
	}

	printWelcome()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("❌ 配置加载失败: %v", err)
	}
	logrus.Info("✅ 配置加载成功")

	// 连接数据库并迁移表结构
	db, err := database.Open(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		Charset:         cfg.Database.Charset,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logrus.Fatalf("❌ 数据库连接失败: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		logrus.Fatalf("❌ 数据库迁移失败: %v", err)
	}
	logrus.Info("✅ 数据库初始化成功")

	// 仓库与启动期数据校验
	repo := storage.NewRepository(db)
	storage.ValidateDatasets(repo)

	// 领域服务
	policySvc := service.NewPolicyService(repo)
	warningSvc := service.NewWarningService(repo)
	sanctionSvc := service.NewSanctionService(repo)
	blocklistSvc := service.NewBlocklistService(repo)
	operatorSvc := service.NewOperatorService(repo)
	logSvc := service.NewLogService(repo)

	// Discord会话与平台网关
	session, err := bot.NewSession(cfg.Discord.BotToken)
	if err != nil {
		logrus.Fatalf("❌ Discord会话创建失败: %v", err)
	}
	gateway := platform.NewDiscordGateway(session)

	// 执法链路
	timers := scheduler.NewTimers()
	pool := utils.NewWorkerPool(cfg.System.PurgeWorkers)
	limiter := utils.NewRateLimiter(cfg.System.RateLimitPerGuild)
	exec := executor.New(sanctionSvc, policySvc, logSvc, gateway, timers,
		pool, limiter, cfg.System.PurgeLookback)
	escalator := escalation.New(warningSvc, exec)
	trk := tracker.New()
	eng := engine.New(policySvc, blocklistSvc, escalator, exec, trk, gateway)

	// 上线
	discordBot := bot.New(cfg, session, eng, operatorSvc, sanctionSvc)
	if err := discordBot.Start(); err != nil {
		logrus.Fatalf("❌ 机器人启动失败: %v", err)
	}

	// 对账必须在网关连接之后：已过期制裁的解除需要平台动作
	sched := scheduler.New(timers, sanctionSvc, exec, trk, limiter, db,
		cfg.Scheduler.CheckExpireInterval)
	if err := sched.Reconcile(); err != nil {
		logrus.Errorf("❌ 启动对账失败: %v", err)
	}
	if err := sched.Start(); err != nil {
		logrus.Fatalf("❌ 调度器启动失败: %v", err)
	}

	logrus.Info("🚀 机器人运行中，按 Ctrl+C 退出")

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("⏳ 正在关闭...")
	sched.Stop()
	discordBot.Stop()
	pool.Close()
	logrus.Info("👋 已退出")
}

func printWelcome() {
	fmt.Println("==========================================")
	fmt.Println("  CẢNH SÁT VIỆT REALM - Moderation Bot")
	fmt.Println("==========================================")
}
