package models

import "time"

// Signal представляет торговый сигнал — закрытый контент,
// доступный только пользователям с действующей подпиской.
type Signal struct {
	ID          int       `json:"id"`
	Pair        string    `json:"pair"`   // Валютная пара, например EUR/USD
	Action      string    `json:"action"` // buy или sell
	EntryPrice  float64   `json:"entry_price"`
	StopLoss    float64   `json:"stop_loss"`
	TakeProfit  float64   `json:"take_profit"`
	PublishedAt time.Time `json:"published_at"`
}
