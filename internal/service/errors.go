package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound общий признак "не найдено" для API и бота
	ErrNotFound = errors.New("not found")

	ErrBookingNotFound  = fmt.Errorf("booking %w", ErrNotFound)
	ErrPaymentNotFound  = fmt.Errorf("payment %w", ErrNotFound)
	ErrDumpsterNotFound = fmt.Errorf("dumpster %w", ErrNotFound)

	// ErrAlreadyDecided - бронирование или оплата уже в окончательном статусе
	ErrAlreadyDecided = errors.New("booking already decided")
	// ErrNotCashPayment - вручную решаются только оплаты наличными, остальные сверяются со шлюзом
	ErrNotCashPayment = errors.New("payment is not cash")
	// ErrBookingNotPayable - бронирование не ждёт оплату (удалено или уже не created)
	ErrBookingNotPayable = errors.New("booking is not awaiting payment")
	// ErrUnsupportedPaymentType - тип оплаты ещё не подключён к шлюзу
	ErrUnsupportedPaymentType = errors.New("unsupported payment type")
)
