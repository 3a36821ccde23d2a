package domain

// Status values are persisted verbatim and significant to external reporting;
// do not rename.
type Status string

const (
	StatusWaitingPayment Status = "aguardando_pagamento"
	StatusPaid           Status = "pago"
	StatusPicking        Status = "em_separacao"
	StatusShipped        Status = "enviado"
	StatusReadyForPickup Status = "pronto_retirada"
	StatusDelivered      Status = "entregue"
	StatusCancelled      Status = "cancelado"
)

// transitions is the forward-only state machine. Any non-terminal state may
// also move to cancelado.
var transitions = map[Status][]Status{
	StatusWaitingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusPicking, StatusCancelled},
	StatusPicking:        {StatusShipped, StatusReadyForPickup, StatusCancelled},
	StatusShipped:        {StatusDelivered, StatusCancelled},
	StatusReadyForPickup: {StatusDelivered, StatusCancelled},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether moving from s to target is allowed. Backward
// moves and transitions out of terminal states are always rejected.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Label is the operator-facing display name, also used in the CSV export.
func (s Status) Label() string {
	switch s {
	case StatusWaitingPayment:
		return "Aguardando pagamento"
	case StatusPaid:
		return "Pago"
	case StatusPicking:
		return "Em separação"
	case StatusShipped:
		return "Enviado"
	case StatusReadyForPickup:
		return "Pronto para retirada"
	case StatusDelivered:
		return "Entregue"
	case StatusCancelled:
		return "Cancelado"
	default:
		return string(s)
	}
}
