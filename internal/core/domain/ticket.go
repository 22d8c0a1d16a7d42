package domain

import "time"

// TicketTier is a purchasable ticket type of an event.
type TicketTier struct {
	ID                string `json:"ticket_id"`
	EventID           string `json:"event_id"`
	Name              string `json:"name"`
	Price             int64  `json:"price"`
	AvailableQuantity int64  `json:"available_quantity"`
}

// SoldOut reports whether no tickets of this tier remain.
func (t *TicketTier) SoldOut() bool {
	return t.AvailableQuantity <= 0
}

// TicketPurchase records a paid ticket.
type TicketPurchase struct {
	ID            string    `json:"purchase_id"`
	TicketID      string    `json:"ticket_id"`
	AccountID     string    `json:"account_id"`
	TransactionID string    `json:"transaction_id"`
	Price         int64     `json:"price"`
	CreatedAt     time.Time `json:"created_at"`
}
