package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/outbox"
)

// Notifier delivers one drained outbox event to its destination. Email,
// invoicing and courier integrations plug in behind this interface.
type Notifier interface {
	Deliver(ctx context.Context, event models.OutboxEvent) error
}

// LogNotifier is the default delivery sink. It renders each event into a
// structured log line, which is enough for operators until a real channel
// is configured.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) (*LogNotifier, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogNotifier{logg: logg}, nil
}

func (n *LogNotifier) Deliver(ctx context.Context, event models.OutboxEvent) error {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return fmt.Errorf("decode outbox envelope: %w", err)
	}

	fields := map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
	}
	logCtx := n.logg.WithFields(ctx, fields)
	n.logg.Info(logCtx, renderSubject(event.EventType))
	return nil
}

func renderSubject(eventType enums.OutboxEventType) string {
	switch eventType {
	case enums.OutboxEventOrderPaid:
		return "notify: pedido pagado"
	case enums.OutboxEventQuoteConverted:
		return "notify: presupuesto convertido en pedido"
	case enums.OutboxEventVoucherIssued:
		return "notify: bono emitido"
	case enums.OutboxEventVoucherDrained:
		return "notify: bono agotado"
	case enums.OutboxEventInvoiceRequest:
		return "notify: factura solicitada"
	default:
		return "notify: evento de dominio"
	}
}
