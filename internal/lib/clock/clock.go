// Package clock предоставляет абстракцию над текущим временем.
//
// Все решения о доступе и переходы состояний подписки читают время
// только через Clock, что позволяет подменять его фиксированными
// часами в тестах и воспроизводить сценарии истечения срока.
package clock

import "time"

// Clock возвращает текущий момент времени.
type Clock interface {
	Now() time.Time
}

// Real — системные часы.
type Real struct{}

// Now возвращает time.Now в UTC.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed — часы с заданным моментом времени для тестов.
type Fixed struct {
	current time.Time
}

// NewFixed создает фиксированные часы, установленные на t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{current: t.UTC()}
}

// Now возвращает установленный момент времени.
func (f *Fixed) Now() time.Time {
	return f.current
}

// Advance сдвигает часы вперёд на d.
func (f *Fixed) Advance(d time.Duration) {
	f.current = f.current.Add(d)
}

// Set устанавливает часы на t.
func (f *Fixed) Set(t time.Time) {
	f.current = t.UTC()
}
