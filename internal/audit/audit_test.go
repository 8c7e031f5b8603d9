package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/schooldir/internal/observability/logger"
)

func TestLog_UsesContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))

	Log(ctx, EventUserBanned, "admin-1", "user-2", logger.String("email", "x"))

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, EventUserBanned, fields["event"])
	require.Equal(t, "admin-1", fields["actor_id"])
	require.Equal(t, "user-2", fields["target"])
	require.Equal(t, "audit", fields["component"])
}
