package models

// Wizard states for the order-entry conversation.
const (
	StateCategory = "awaiting_category"
	StateFrom     = "awaiting_from"
	StateTo       = "awaiting_to"
	StatePrice    = "awaiting_price"
	StatePhone    = "awaiting_phone"
)

// Session is the order-entry wizard state for one requester. Kept in Redis
// with a TTL so an abandoned conversation expires instead of lingering.
type Session struct {
	UserID   int64  `json:"user_id"`
	State    string `json:"state"`
	Category string `json:"category"`
	FromAddr string `json:"from_addr"`
	ToAddr   string `json:"to_addr"`
	Price    int    `json:"price"`
}
