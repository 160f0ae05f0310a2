package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Status is the stored lifecycle state of a registration.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ErrUnknownStatus flags a stored status outside the lifecycle enum. It is a
// data corruption signal and is never defaulted to a displayable value.
var ErrUnknownStatus = errors.New("unknown registration status")

// ParseStatus validates a stored status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
}

// Severity is the visual class attached to a presentation status.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Presentation is the externally visible rendering of a status.
type Presentation struct {
	Label    string
	Severity Severity
}

// PresentationStatus maps a stored status to its display label and severity.
// The mapping is total over the three lifecycle values.
func PresentationStatus(status Status) (Presentation, error) {
	switch status {
	case StatusPending:
		return Presentation{Label: "under review", Severity: SeverityWarning}, nil
	case StatusApproved:
		return Presentation{Label: "approved", Severity: SeveritySuccess}, nil
	case StatusRejected:
		return Presentation{Label: "rejected", Severity: SeverityError}, nil
	default:
		return Presentation{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
}

// PaymentPromptRequired reports whether payment instructions should be shown:
// only a pending registration with a positive fee prompts for payment.
func PaymentPromptRequired(status Status, fee *decimal.Decimal) bool {
	if status != StatusPending {
		return false
	}
	return fee != nil && fee.IsPositive()
}

// TransferEligible reports whether the registration may request a category
// transfer. Rejected registrations may not.
func TransferEligible(status Status) bool {
	return status == StatusPending || status == StatusApproved
}
