package model

import "time"

// NotificationRecord - запись журнала уведомлений.
// На каждую пару (BookingID, Status) существует не более одной записи.
type NotificationRecord struct {
	ID         int64         `json:"id"`
	BookingID  int64         `json:"booking_id"`
	CustomerID int64         `json:"customer_id"`
	Message    string        `json:"message"`
	Status     BookingStatus `json:"status"` // статус бронирования, о котором сообщаем
	Sent       bool          `json:"sent"`
	CreatedAt  time.Time     `json:"created_at"`
	SentAt     *time.Time    `json:"sent_at"`
}
