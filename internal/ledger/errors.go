package ledger

import "errors"

// Ошибки бизнес-правил. HTTP-слой сопоставляет их с кодами ответов.
var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrConflict     = errors.New("conflict")
)

// ValidationError описывает некорректные входные данные (неположительная
// сумма, нехватка средств, неизвестный статус). Никаких изменений состояния
// при такой ошибке не происходит.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
