package storage

import (
	"encoding/json"

	"github.com/stainmc2102/MODERATION-BOT-DISCORD/internal/models"

	"github.com/sirupsen/logrus"
)

// ValidateDatasets 启动时校验存储内容。
// 损坏的列在运行时按空降级，不会使请求失败，但必须在启动时向运维告警，
// 否则静默丢失状态无人知晓。
func ValidateDatasets(r *Repository) {
	var policies []models.GuildPolicy
	if err := r.DB().Find(&policies).Error; err != nil {
		logrus.Errorf("❌ 策略数据集校验失败: %v", err)
		return
	}

	corrupt := 0
	for _, p := range policies {
		for _, col := range []string{p.BypassUsers, p.BypassRoles, p.BypassChannels} {
			if col == "" {
				continue
			}
			var ids []string
			if err := json.Unmarshal([]byte(col), &ids); err != nil {
				corrupt++
				logrus.WithFields(logrus.Fields{
					"服务器ID": p.GuildID,
				}).Error("❌ 发现损坏的Bypass列，运行时将按空列表处理")
			}
		}
	}

	if corrupt > 0 {
		logrus.WithField("损坏列数", corrupt).Error("❌ 存储校验发现损坏数据，历史状态可能已丢失，请检查备份")
	} else {
		logrus.WithField("策略条数", len(policies)).Info("✅ 存储校验通过")
	}
}
