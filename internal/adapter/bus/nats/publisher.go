package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"event-token-ledger/internal/core/domain"
)

// Conn is the publishing half of *nats.Conn.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher implements ports.EventPublisher on NATS core subjects:
//
//	<prefix>.transfers.completed
//	<prefix>.accounts.<accountID>.balance
type Publisher struct {
	conn   Conn
	prefix string
}

// NewPublisher creates a publisher. An empty prefix defaults to "ledger".
func NewPublisher(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = "ledger"
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// TransferSubject is the subject every completed transfer is published on.
func (p *Publisher) TransferSubject() string {
	return p.prefix + ".transfers.completed"
}

// BalanceSubject is the per-account subject a wallet view subscribes to.
func (p *Publisher) BalanceSubject(accountID string) string {
	return p.prefix + ".accounts." + subjectToken(accountID) + ".balance"
}

func (p *Publisher) PublishTransfer(ctx context.Context, evt domain.TransferCompleted) error {
	return p.publish(p.TransferSubject(), evt)
}

func (p *Publisher) PublishBalance(ctx context.Context, evt domain.BalanceChanged) error {
	return p.publish(p.BalanceSubject(evt.AccountID), evt)
}

func (p *Publisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

var subjectReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

// subjectToken makes an account id safe to use as a single subject token.
func subjectToken(id string) string {
	return subjectReplacer.Replace(id)
}
