package formatting

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/model"
)

// FormatPrice форматирует сумму из сентаво в реалы: 123456 -> "R$ 1.234,56"
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := fmt.Sprintf("%d", cents/100)
	var groups []string
	for len(whole) > 3 {
		groups = append([]string{whole[len(whole)-3:]}, groups...)
		whole = whole[:len(whole)-3]
	}
	groups = append([]string{whole}, groups...)

	return fmt.Sprintf("%sR$ %s,%02d", sign, strings.Join(groups, "."), cents%100)
}

// FormatDateRange период аренды в бразильском формате
func FormatDateRange(start, end time.Time) string {
	return fmt.Sprintf("%s – %s", start.Format("02/01/2006"), end.Format("02/01/2006"))
}

// BookingStatusDisplay представляет отображение статуса бронирования
type BookingStatusDisplay struct {
	Emoji string
	Text  string
}

// GetBookingStatusDisplay возвращает emoji и текст для статуса бронирования
func GetBookingStatusDisplay(status model.BookingStatus) BookingStatusDisplay {
	displays := map[model.BookingStatus]BookingStatusDisplay{
		model.BookingStatusCreated:    {"🆕", "Criada"},
		model.BookingStatusProcessing: {"⏳", "Em processamento"},
		model.BookingStatusConfirmed:  {"✅", "Confirmada"},
		model.BookingStatusCompleted:  {"✔️", "Concluída"},
		model.BookingStatusRejected:   {"🚫", "Rejeitada"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return BookingStatusDisplay{"❓", "Desconhecido"}
}
