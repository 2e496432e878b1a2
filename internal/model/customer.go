package model

import "time"

// Customer - клиент, арендующий контейнер
type Customer struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	TelegramChatID *int64    `json:"telegram_chat_id"` // куда доставлять уведомления
	CreatedAt      time.Time `json:"created_at"`
}
