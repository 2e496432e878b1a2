package model

import (
	"math"
	"time"

	"github.com/jinzhu/now"
)

type DumpsterSize string

const (
	DumpsterSizeSmall  DumpsterSize = "small"  // 3 м³
	DumpsterSizeMedium DumpsterSize = "medium" // 5 м³
	DumpsterSizeLarge  DumpsterSize = "large"  // 7 м³
)

// Dumpster - единица парка контейнеров (только чтение)
type Dumpster struct {
	ID         int64        `json:"id"`
	Code       string       `json:"code"`
	Size       DumpsterSize `json:"size"`
	DailyPrice int64        `json:"daily_price"` // в сентаво
}

// RentalDays считает календарные дни аренды включительно
func RentalDays(start, end time.Time) int {
	from := now.With(start).BeginningOfDay()
	to := now.With(end).BeginningOfDay()
	if to.Before(from) {
		return 0
	}
	return int(math.Round(to.Sub(from).Hours()/24)) + 1
}

// BookingTotal возвращает стоимость аренды в сентаво
func BookingTotal(b *Booking, d *Dumpster) int64 {
	if b == nil || d == nil {
		return 0
	}
	return int64(RentalDays(b.StartDate, b.EndDate)) * d.DailyPrice
}
