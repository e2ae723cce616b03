package database

import (
	"fmt"

	"github.com/jaylenmareko/topic-funding-sub001/internal/config"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate 自动迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.TopicModel{},
		&model.ContributionModel{},
		&model.PayoutModel{},
		&model.CreatorModel{},
		&model.CheckoutSessionModel{},
		&model.FundingEventModel{},
		&model.WebhookEventModel{},
		&model.RefundRecordModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 同一话题最多一条非失败结算记录
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_payout_topic_active
		ON payout (topic_id) WHERE status <> 'failed'`).Error; err != nil {
		return fmt.Errorf("failed to create payout partial index: %w", err)
	}
	return nil
}
