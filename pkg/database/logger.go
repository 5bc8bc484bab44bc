package database

import (
	"time"

	"venue-crm-backend/pkg/config"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func gormConfig(debug bool) *gorm.Config {
	level := logger.Error
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		Logger: logger.New(
			config.GetLogger().WithField("module", "gorm"),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}
