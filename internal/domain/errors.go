package domain

import "errors"

// ErrInvalidPayload: удаленный ответ не соответствует ожидаемой форме.
var ErrInvalidPayload = errors.New("invalid payload")

func inPercentRange(v float64) bool {
	return v >= 0 && v <= 100
}
