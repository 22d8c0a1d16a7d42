package domain

// Event is a published microsite. Every spend inside it pays the owner account.
type Event struct {
	ID             string `json:"event_id"`
	OwnerAccountID string `json:"owner_account_id"`
	Title          string `json:"title"`
}
