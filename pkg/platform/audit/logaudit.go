package audit

import (
	"context"
	"log/slog"

	"formflow/pkg/attrs"
	id "formflow/pkg/domain"
	"formflow/pkg/requestcontext"
)

// Emitter is the publishing side of the audit trail.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// LogAudit logs a submission log event to both the structured logger and the publisher.
// Plugin and reason are extracted from attrList; request ID and trigger come from ctx.
func LogAudit(ctx context.Context, logger *slog.Logger, emitter Emitter, submissionID id.SubmissionID, event AuditEvent, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	args := append(attrList, "event", string(event), "submission_id", submissionID.String(), "log_type", "audit")
	if logger != nil {
		logger.InfoContext(ctx, string(event), args...)
	}

	if emitter == nil {
		return
	}

	err := emitter.Emit(ctx, Event{
		Category:     event.Category(),
		SubmissionID: submissionID,
		Action:       string(event),
		Plugin:       attrs.ExtractString(attrList, "plugin"),
		Reason:       attrs.ExtractString(attrList, "reason"),
		Trigger:      requestcontext.Trigger(ctx),
		RequestID:    requestID,
		Extra:        extra(attrList),
	})
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit submission log event", "event", string(event), "error", err)
	}
}

var reservedKeys = map[string]struct{}{"plugin": {}, "reason": {}, "request_id": {}}

func extra(attrList []any) map[string]any {
	var out map[string]any
	for i := 0; i+1 < len(attrList); i += 2 {
		k, ok := attrList[i].(string)
		if !ok {
			continue
		}
		if _, skip := reservedKeys[k]; skip {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		if err, ok := attrList[i+1].(error); ok {
			out[k] = err.Error()
			continue
		}
		out[k] = attrList[i+1]
	}
	return out
}
