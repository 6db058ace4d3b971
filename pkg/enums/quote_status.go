package enums

import "fmt"

// QuoteStatus tracks a custom-print quote from submission to conversion.
type QuoteStatus string

const (
	QuoteStatusPendingReview QuoteStatus = "pending_review"
	QuoteStatusQuoted        QuoteStatus = "quoted"
	QuoteStatusPaymentSent   QuoteStatus = "payment_sent"
	QuoteStatusPaid          QuoteStatus = "paid"
	QuoteStatusCancelled     QuoteStatus = "cancelled"
	QuoteStatusExpired       QuoteStatus = "expired"
)

var validQuoteStatuses = []QuoteStatus{
	QuoteStatusPendingReview,
	QuoteStatusQuoted,
	QuoteStatusPaymentSent,
	QuoteStatusPaid,
	QuoteStatusCancelled,
	QuoteStatusExpired,
}

// quoteTransitions enumerates the legal forward moves.
var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusPendingReview: {QuoteStatusQuoted, QuoteStatusCancelled, QuoteStatusExpired},
	QuoteStatusQuoted:        {QuoteStatusPaymentSent, QuoteStatusPaid, QuoteStatusCancelled, QuoteStatusExpired},
	QuoteStatusPaymentSent:   {QuoteStatusPaid, QuoteStatusCancelled, QuoteStatusExpired},
}

// String implements fmt.Stringer.
func (s QuoteStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known QuoteStatus.
func (s QuoteStatus) IsValid() bool {
	for _, candidate := range validQuoteStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the quote can no longer move.
func (s QuoteStatus) IsTerminal() bool {
	switch s {
	case QuoteStatusPaid, QuoteStatusCancelled, QuoteStatusExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether the move from s to next is legal.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, candidate := range quoteTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseQuoteStatus converts raw input into a QuoteStatus.
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, candidate := range validQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote status %q", value)
}
