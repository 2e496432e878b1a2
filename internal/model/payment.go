package model

import (
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusCreated    PaymentStatus = "created"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusRejected   PaymentStatus = "rejected"
	PaymentStatusApproved   PaymentStatus = "approved"
)

type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypePix    PaymentType = "pix"
	PaymentTypeCredit PaymentType = "credit"
	PaymentTypeDebit  PaymentType = "debit"
)

// ParsePaymentStatus разбирает статус оплаты из строки
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(s); st {
	case PaymentStatusCreated, PaymentStatusProcessing, PaymentStatusRejected, PaymentStatusApproved:
		return st, nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

// ParsePaymentType разбирает тип оплаты из строки
func ParsePaymentType(s string) (PaymentType, error) {
	switch t := PaymentType(s); t {
	case PaymentTypeCash, PaymentTypePix, PaymentTypeCredit, PaymentTypeDebit:
		return t, nil
	}
	return "", fmt.Errorf("unknown payment type %q", s)
}

// IsElectronic - всё кроме наличных проходит через шлюз
func (t PaymentType) IsElectronic() bool {
	return t != PaymentTypeCash
}

// InitialPaymentStatus возвращает стартовый статус для типа оплаты
func InitialPaymentStatus(t PaymentType) PaymentStatus {
	if t == PaymentTypeCash {
		return PaymentStatusProcessing
	}
	return PaymentStatusCreated
}

// IsTerminal - после approved/rejected статус больше не меняется
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

func (s PaymentStatus) rank() int {
	switch s {
	case PaymentStatusCreated:
		return 0
	case PaymentStatusProcessing:
		return 1
	default:
		return 2
	}
}

type Payment struct {
	ID             int64         `json:"id"`
	Amount         int64         `json:"amount"` // в сентаво
	Type           PaymentType   `json:"type"`
	Status         PaymentStatus `json:"status"`
	GatewayOrderID *string       `json:"gateway_order_id"`
	GatewayQRCode  *string       `json:"gateway_qr_code"`
	CreatedAt      time.Time     `json:"created_at"`
	DeletedAt      *time.Time    `json:"deleted_at"`
	Version        int64         `json:"version"`
}

// CanTransitionTo проверяет монотонность перехода к терминальному статусу.
// Повтор текущего нетерминального статуса разрешён (waiting -> processing).
func (p *Payment) CanTransitionTo(next PaymentStatus) bool {
	if p.Status.IsTerminal() {
		return false
	}
	return next.rank() >= p.Status.rank()
}

// IsDeleted проверяет мягкое удаление
func (p *Payment) IsDeleted() bool {
	return p.DeletedAt != nil
}
