package types

import (
	"time"
)

type User struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
}

const (
	TradeStatusOpen       = "open"
	TradeStatusInProgress = "in_progress"
	TradeStatusCompleted  = "completed"
	TradeStatusCancelled  = "cancelled"
)

type Trade struct {
	Id        int       `json:"id"`
	SellerId  int       `json:"seller_id"`
	BuyerId   int       `json:"buyer_id,omitempty"`
	Asset     string    `json:"asset"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type ChatMessage struct {
	TradeId    int       `json:"trade_id"`
	SenderId   int       `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
