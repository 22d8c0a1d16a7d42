package domain

import "time"

// Form is a registration form. A positive TokenAmount makes it a paid form.
type Form struct {
	ID          string `json:"form_id"`
	EventID     string `json:"event_id"`
	Title       string `json:"title"`
	TokenAmount int64  `json:"token_amount"`
}

// FormSubmission holds the answers of a paid submission.
type FormSubmission struct {
	ID            string            `json:"submission_id"`
	FormID        string            `json:"form_id"`
	AccountID     string            `json:"account_id"`
	TransactionID string            `json:"transaction_id"`
	Answers       map[string]string `json:"answers"`
	CreatedAt     time.Time         `json:"created_at"`
}
