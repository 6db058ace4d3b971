package enums

// OutboxEventType names the side effects dispatched after reconciliation commits.
type OutboxEventType string

const (
	OutboxEventOrderPaid      OutboxEventType = "order.paid"
	OutboxEventQuoteConverted OutboxEventType = "quote.converted"
	OutboxEventVoucherIssued  OutboxEventType = "voucher.issued"
	OutboxEventVoucherDrained OutboxEventType = "voucher.drained"
	OutboxEventInvoiceRequest OutboxEventType = "invoice.requested"
)

// IsValid reports whether the value is a known OutboxEventType.
func (t OutboxEventType) IsValid() bool {
	switch t {
	case OutboxEventOrderPaid, OutboxEventQuoteConverted, OutboxEventVoucherIssued,
		OutboxEventVoucherDrained, OutboxEventInvoiceRequest:
		return true
	}
	return false
}

// OutboxAggregateType names the entity an outbox event refers to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder   OutboxAggregateType = "order"
	OutboxAggregateQuote   OutboxAggregateType = "quote"
	OutboxAggregateVoucher OutboxAggregateType = "voucher"
)

// IsValid reports whether the value is a known OutboxAggregateType.
func (t OutboxAggregateType) IsValid() bool {
	switch t {
	case OutboxAggregateOrder, OutboxAggregateQuote, OutboxAggregateVoucher:
		return true
	}
	return false
}
