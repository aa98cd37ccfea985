package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/eventforge/internal/data/repos/events"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

type EventRepo = events.EventRepo
type EventRepoOption = events.Option

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger, opts ...EventRepoOption) EventRepo {
	return events.NewEventRepo(db, baseLog, opts...)
}

func WithTitleDedupe(on bool) EventRepoOption { return events.WithTitleDedupe(on) }
