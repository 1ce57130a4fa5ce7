package database

import (
	"fmt"
	"time"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 数据库配置结构
type Config struct {
	Host            string // 数据库主机地址
	Port            int    // 数据库端口
	Username        string // 数据库用户名
	Password        string // 数据库密码
	Database        string // 数据库名称
	Charset         string // 字符集
	MaxIdleConns    int    // 最大空闲连接数
	MaxOpenConns    int    // 最大打开连接数
	ConnMaxLifetime int    // 连接最大生命周期（秒）
	ConnMaxIdleTime int    // 空闲连接超时（秒）
}

// Open 建立数据库连接并配置连接池。
// 不再使用包级全局 DB：连接由调用方持有并显式传给仓库对象。
func Open(cfg Config) (*gorm.DB, error) {
	// 使用 charset=utf8mb4 让 MySQL 8.0 使用数据库默认的 collation
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s&readTimeout=30s&writeTimeout=30s",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent), // 静默模式，减少日志输出
		DisableForeignKeyConstraintWhenMigrating: true,                                  // 禁用外键约束，提高性能
		PrepareStmt:                              true,                                  // 启用预编译语句缓存
		SkipDefaultTransaction:                   true,                                  // 跳过默认事务，提升性能
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}

	// 配置连接池参数
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	// 设置空闲连接超时，避免长时间空闲连接被服务器断开
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	} else {
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"最大空闲连接":   cfg.MaxIdleConns,
		"最大打开连接":   cfg.MaxOpenConns,
		"连接最大生命周期": fmt.Sprintf("%d秒", cfg.ConnMaxLifetime),
	}).Debug("数据库连接池配置")

	return db, nil
}

// AutoMigrate 同步数据库表结构
func AutoMigrate(db *gorm.DB) error {
	tableModels := []interface{}{
		&models.GuildPolicy{},  // 服务器策略表
		&models.Warning{},      // 警告记录表
		&models.Sanction{},     // 制裁记录表
		&models.BlockRule{},    // 封禁规则表
		&models.Operator{},     // 授权操作者表
		&models.OperationLog{}, // 操作日志表
	}

	if err := db.AutoMigrate(tableModels...); err != nil {
		return fmt.Errorf("数据库表结构迁移失败: %w", err)
	}

	logrus.Info("✅ 数据库表结构同步完成")
	return nil
}

// Ping 数据库健康检查
func Ping(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取数据库实例失败: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		logrus.Errorf("数据库连接检查失败: %v", err)
		return err
	}

	return nil
}

// PingWithRetry 带重试的数据库健康检查
func PingWithRetry(db *gorm.DB, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := Ping(db)
		if err == nil {
			return nil
		}

		lastErr = err
		if i < maxRetries-1 {
			waitTime := time.Duration(i+1) * time.Second
			logrus.WithFields(logrus.Fields{
				"重试次数": i + 1,
				"等待时间": waitTime,
			}).Warn("⚠️ 数据库连接失败，正在重试...")
			time.Sleep(waitTime)
		}
	}

	return fmt.Errorf("数据库连接失败，已重试 %d 次: %w", maxRetries, lastErr)
}

// Stats 获取数据库连接池统计信息
func Stats(db *gorm.DB) string {
	if db == nil {
		return "数据库未初始化"
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Sprintf("获取数据库实例失败: %v", err)
	}

	stats := sqlDB.Stats()
	return fmt.Sprintf("打开连接: %d, 使用中: %d, 空闲: %d, 等待: %d",
		stats.OpenConnections,
		stats.InUse,
		stats.Idle,
		stats.WaitCount,
	)
}

// Close 关闭数据库连接
func Close(db *gorm.DB) error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("获取数据库连接失败: %w", err)
		}
		logrus.Info("🔌 正在关闭数据库连接...")
		return sqlDB.Close()
	}
	return nil
}
