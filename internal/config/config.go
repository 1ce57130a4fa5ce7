package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	Discord   DiscordConfig   `mapstructure:"discord"`
	Database  DatabaseConfig  `mapstructure:"database"`
	System    SystemConfig    `mapstructure:"system"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// DiscordConfig Discord配置
type DiscordConfig struct {
	BotToken  string   `mapstructure:"bot_token"`
	AuthorIDs []string `mapstructure:"author_ids"` // 机器人作者，永远拥有全部权限
}

// IsAuthor 检查用户ID是否在作者列表中
func (d *DiscordConfig) IsAuthor(userID string) bool {
	for _, authorID := range d.AuthorIDs {
		if authorID == userID {
			return true
		}
	}
	return false
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Charset         string `mapstructure:"charset"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接超时
}

// SystemConfig 系统配置
type SystemConfig struct {
	RateLimitPerGuild int    `mapstructure:"rate_limit_per_guild"` // 每服务器每秒平台API操作上限
	PurgeLookback     int    `mapstructure:"purge_lookback"`       // 封禁后每频道回溯删除的消息数
	PurgeWorkers      int    `mapstructure:"purge_workers"`        // 批量清理并发数
	LogLevel          string `mapstructure:"log_level"`
	Timezone          string `mapstructure:"timezone"`
}

// SchedulerConfig 调度器配置
type SchedulerConfig struct {
	CheckExpireInterval string `mapstructure:"check_expire_interval"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 解析配置
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults() {
	viper.SetDefault("database.charset", "utf8mb4")
	viper.SetDefault("database.max_idle_conns", 20)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 1800)
	viper.SetDefault("database.conn_max_idle_time", 600)

	viper.SetDefault("system.rate_limit_per_guild", 5)
	viper.SetDefault("system.purge_lookback", 100)
	viper.SetDefault("system.purge_workers", 4)
	viper.SetDefault("system.log_level", "info")
	viper.SetDefault("system.timezone", "Asia/Ho_Chi_Minh")

	viper.SetDefault("scheduler.check_expire_interval", "*/1 * * * *")
}
