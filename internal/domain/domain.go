// Package domain re-exports the persisted models so repos and wiring can import a single package.
package domain

import "github.com/yungbote/eventforge/internal/domain/events"

type (
	DynamicEvent  = events.DynamicEvent
	EventUsageLog = events.EventUsageLog
)

// Models lists every table managed by auto-migration.
func Models() []any {
	return []any{
		&events.DynamicEvent{},
		&events.EventUsageLog{},
	}
}
