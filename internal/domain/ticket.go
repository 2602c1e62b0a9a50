package domain

import "time"

// Ticket — билет, выданный по подтверждённому заказу.
// Создаётся пакетно при переходе заказа в CONFIRMED, удаляется каскадно
// вместе с заказом.
type Ticket struct {
	ID        int64     // Идентификатор билета (auto-increment)
	OrderID   int64     // Заказ, к которому относится билет
	EventID   int64     // Мероприятие
	SeatID    string    // Идентификатор места (непрозрачная строка)
	PricePaid Money     // Фактически уплаченная цена места (без налога)
	CreatedAt time.Time // Время выдачи (UTC)
}
