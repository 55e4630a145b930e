package domain

import "strings"

type Status string

const (
	StatusPending    Status = "pendiente"
	StatusProcessing Status = "procesando"
	StatusPaid       Status = "pagado"
	StatusShipped    Status = "enviado"
	StatusDelivered  Status = "entregado"
	StatusCancelled  Status = "cancelado"
)

// Statuses lists every order status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusPaid,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusPaid, StatusCancelled},
	StatusProcessing: {StatusPaid, StatusShipped, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

func ParseStatus(raw string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range Statuses {
		if candidate == status {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
// Staying in the same status is handled by callers as a no-op.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Ordinal is the position of s in Statuses, or -1.
func (s Status) Ordinal() int {
	for i, status := range Statuses {
		if status == s {
			return i
		}
	}
	return -1
}

type PaymentMethod string

const (
	PaymentQR       PaymentMethod = "qr"
	PaymentTransfer PaymentMethod = "transferencia"
	PaymentCard     PaymentMethod = "tarjeta"
)

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch method := PaymentMethod(strings.ToLower(strings.TrimSpace(raw))); method {
	case PaymentQR, PaymentTransfer, PaymentCard:
		return method, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// RequiresProof is true for methods settled outside the storefront.
func (m PaymentMethod) RequiresProof() bool {
	return m == PaymentQR || m == PaymentTransfer
}

// InitialStatus is the status a new order starts in for the given method.
func (m PaymentMethod) InitialStatus() Status {
	if m == PaymentCard {
		return StatusPaid
	}
	return StatusPending
}
