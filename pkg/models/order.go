package models

import "time"

// Order status flow: new -> accepted -> completed. Transitions never revert.
const (
	StatusNew       = "new"
	StatusAccepted  = "accepted"
	StatusCompleted = "completed"
)

const (
	CategoryLocal     = "local"
	CategoryIntercity = "intercity"
)

type Order struct {
	ID          int64     `json:"id"`
	FromAddr    string    `json:"from_addr"`
	ToAddr      string    `json:"to_addr"`
	Price       int       `json:"price"`
	Phone       string    `json:"phone"`
	PassengerID int64     `json:"passenger_id"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Rating      int       `json:"rating"`
	DriverID    *int64    `json:"driver_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Where the group broadcast for this order lives, so it can be
	// edited after a driver takes the order. Zero until attached.
	BroadcastChatID    int64 `json:"broadcast_chat_id"`
	BroadcastMessageID int   `json:"broadcast_message_id"`
}
