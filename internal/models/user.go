// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и роль.
// Структура используется в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей системы.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    `json:"uid"`      // Уникальный идентификатор пользователя
	Email        string    `json:"email"`    // Электронная почта
	Username     string    `json:"username"` // Имя пользователя (уникальное)
	PasswordHash string    `json:"-"`        // Хэш пароля пользователя
	Role         string    `json:"role"`     // Роль пользователя, admin или user
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin сообщает, является ли пользователь администратором.
// Администраторы не подлежат проверке подписки.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required,min=8"`    // Пароль (минимум 8 символов)
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Username string `json:"username" validate:"required"` // Имя пользователя
	Password string `json:"password" validate:"required"` // Пароль
}
