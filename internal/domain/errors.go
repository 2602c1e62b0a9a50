// Package domain содержит бизнес-сущности и доменные ошибки сервиса заказов.
package domain

import "errors"

// Доменные ошибки сервиса заказов.
// Используются для передачи бизнес-ошибок между слоями приложения;
// HTTP-слой отображает их в статус-коды через errors.Is.
var (
	// ErrOrderNotFound возвращается, когда заказ не найден в базе данных.
	ErrOrderNotFound = errors.New("заказ не найден")

	// ErrTicketNotFound возвращается, когда билет не найден в базе данных.
	ErrTicketNotFound = errors.New("билет не найден")

	// ErrEventNotFound возвращается, когда мероприятие отсутствует в каталоге.
	ErrEventNotFound = errors.New("мероприятие не найдено")

	// ErrSeatNotFound возвращается, когда запрошенное место отсутствует в схеме зала.
	ErrSeatNotFound = errors.New("место не найдено")

	// ErrEventNotSellable возвращается, когда продажи по мероприятию закрыты
	// (статус отличен от ON_SALE).
	ErrEventNotSellable = errors.New("продажи по мероприятию закрыты")

	// ErrSeatUnavailable возвращается при отказе в резервировании мест.
	ErrSeatUnavailable = errors.New("места недоступны для резервирования")

	// ErrPaymentFailed возвращается при окончательном отказе платёжного сервиса.
	ErrPaymentFailed = errors.New("платёж отклонён")

	// ErrUpstreamUnavailable возвращается при таймауте или транспортной ошибке
	// любого внешнего сервиса.
	ErrUpstreamUnavailable = errors.New("внешний сервис недоступен")

	// ErrAlreadyCancelled возвращается при повторной отмене заказа.
	ErrAlreadyCancelled = errors.New("заказ уже отменён")

	// ErrAlreadyRefunded возвращается при попытке отменить возвращённый заказ.
	ErrAlreadyRefunded = errors.New("по заказу уже выполнен возврат")

	// ErrEmptySeatList возвращается при попытке создать заказ без мест.
	ErrEmptySeatList = errors.New("список мест не может быть пустым")

	// ErrDuplicateSeatID возвращается, когда в запросе повторяются идентификаторы мест.
	ErrDuplicateSeatID = errors.New("идентификаторы мест должны быть уникальными")

	// ErrInvalidUserID возвращается при некорректном идентификаторе пользователя.
	ErrInvalidUserID = errors.New("некорректный идентификатор пользователя")

	// ErrDuplicateOrder возвращается при вставке заказа с уже занятым idempotency_key.
	ErrDuplicateOrder = errors.New("заказ с таким idempotency_key уже существует")

	// ErrFulfillmentFailed возвращается, когда платёж прошёл, но выдача билетов
	// и компенсирующий возврат не удались. Заказ остаётся в статусе
	// PAYMENT_COMPLETED_BUT_FULFILLMENT_FAILED и требует вмешательства оператора.
	ErrFulfillmentFailed = errors.New("оплата прошла, но выдача билетов не завершена")

	// ErrOrderStateTransition возвращается при недопустимом переходе статуса заказа.
	ErrOrderStateTransition = errors.New("недопустимый переход статуса заказа")
)
