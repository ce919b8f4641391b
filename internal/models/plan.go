package models

// Plan представляет тарифный план из каталога.
// Каталог читается часто и меняется редко. Длительность тарифа
// используется только в момент перехода состояния для вычисления
// EndDate; после записи дата в подписке авторитетна и к тарифу
// больше не обращаются.
type Plan struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Price        int    `json:"price"` // Цена в центах за период
	DurationDays int    `json:"duration_days"`
}
