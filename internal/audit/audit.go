// Package audit registra acciones administrativas (altas, bans, cambios de
// escuelas) como líneas estructuradas en un logger dedicado.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/schooldir/internal/observability/logger"
)

// Eventos conocidos.
const (
	EventUserCreated   = "user.created"
	EventUserBanned    = "user.banned"
	EventUserUnbanned  = "user.unbanned"
	EventSchoolCreated = "school.created"
	EventSchoolUpdated = "school.updated"
	EventSchoolDeleted = "school.deleted"
)

// Log escribe un evento de auditoría. actorID es quien ejecuta la acción
// ("cli" para el CLI); target el recurso afectado.
func Log(ctx context.Context, event, actorID, target string, fields ...zap.Field) {
	base := []zap.Field{
		logger.Component("audit"),
		logger.String("event", event),
		logger.String("actor_id", actorID),
		logger.String("target", target),
	}
	logger.From(ctx).Info("audit", append(base, fields...)...)
}
