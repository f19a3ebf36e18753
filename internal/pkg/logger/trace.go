package logger

import (
	"context"
	log "log/slog"
)

// TraceIDKey 请求链路 ID 在 Context 与日志字段中共用的键名
const TraceIDKey = "trace_id"

// ContextHandler 在写日志前把 ctx 里的 trace_id 附加为日志属性
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if ctx == nil {
		return h.Handler.Handle(ctx, r)
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		r.AddAttrs(log.String(TraceIDKey, traceID))
	}
	return h.Handler.Handle(ctx, r)
}
