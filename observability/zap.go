package observability

import (
	"context"

	"go.uber.org/zap"
)

// ZapObserver writes events to a zap logger.
type ZapObserver struct {
	logger *zap.Logger
}

// NewZapObserver wraps logger. A nil logger yields a no-op logger.
func NewZapObserver(logger *zap.Logger) *ZapObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapObserver{logger: logger.Named("events")}
}

func (o *ZapObserver) OnEvent(ctx context.Context, event Event) {
	ce := o.logger.Check(event.Level.ZapLevel(), string(event.Type))
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, len(event.Data)+2)
	fields = append(fields, zap.String("source", event.Source), zap.Time("ts", event.Timestamp))
	for k, v := range event.Data {
		fields = append(fields, zap.Any(k, v))
	}
	ce.Write(fields...)
}
