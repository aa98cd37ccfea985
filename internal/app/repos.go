package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/eventforge/internal/data/repos"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

type Repos struct {
	Events repos.EventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Events: repos.NewEventRepo(db, log, repos.WithTitleDedupe(cfg.SaveDedupeTitles)),
	}
}
