package model

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusCreated    BookingStatus = "created"    // Создано, оплата ещё не привязана
	BookingStatusProcessing BookingStatus = "processing" // Ожидает решения по оплате
	BookingStatusRejected   BookingStatus = "rejected"   // Отклонено (оплата отменена или истёк срок)
	BookingStatusConfirmed  BookingStatus = "confirmed"  // Подтверждено
	BookingStatusCompleted  BookingStatus = "completed"  // Аренда завершена
)

// ParseBookingStatus разбирает статус из строки, неизвестные значения считаются ошибкой
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(s); st {
	case BookingStatusCreated, BookingStatusProcessing, BookingStatusRejected,
		BookingStatusConfirmed, BookingStatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// IsDecided сообщает, что по бронированию уже принято окончательное решение
func (s BookingStatus) IsDecided() bool {
	return s == BookingStatusConfirmed || s == BookingStatusRejected || s == BookingStatusCompleted
}

type Booking struct {
	ID         int64         `json:"id"`
	CustomerID int64         `json:"customer_id"`
	DumpsterID int64         `json:"dumpster_id"`
	PaymentID  *int64        `json:"payment_id"` // выставляется один раз при привязке оплаты
	Address    string        `json:"address"`
	Latitude   *float64      `json:"latitude"`
	Longitude  *float64      `json:"longitude"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	DeletedAt  *time.Time    `json:"deleted_at"` // nil - активное бронирование
	Version    int64         `json:"version"`

	// Дополнительные поля для удобства (не из БД)
	Payment  *Payment  `json:"payment,omitempty"`
	Customer *Customer `json:"customer,omitempty"`
	Dumpster *Dumpster `json:"dumpster,omitempty"`
}

// IsDeleted проверяет мягкое удаление
func (b *Booking) IsDeleted() bool {
	return b.DeletedAt != nil
}

// Expire отклоняет бронирование, которое слишком долго ждало оплату
func (b *Booking) Expire(now time.Time) {
	b.Status = BookingStatusRejected
	deletedAt := now
	b.DeletedAt = &deletedAt
}
