package memory

import (
	"fmt"

	"event-token-ledger/internal/core/domain"

	"github.com/spf13/viper"
)

// Seed is the catalog the memory driver starts with. Events, candidates,
// ticket tiers and forms are owned by the surrounding platform; in memory
// mode they come from a YAML or JSON file instead.
type Seed struct {
	Events []struct {
		ID    string `mapstructure:"id"`
		Owner string `mapstructure:"owner"`
		Title string `mapstructure:"title"`
	} `mapstructure:"events"`
	Candidates []struct {
		ID      string `mapstructure:"id"`
		EventID string `mapstructure:"event_id"`
		Name    string `mapstructure:"name"`
	} `mapstructure:"candidates"`
	Tickets []struct {
		ID       string `mapstructure:"id"`
		EventID  string `mapstructure:"event_id"`
		Name     string `mapstructure:"name"`
		Price    int64  `mapstructure:"price"`
		Quantity int64  `mapstructure:"quantity"`
	} `mapstructure:"tickets"`
	Forms []struct {
		ID          string `mapstructure:"id"`
		EventID     string `mapstructure:"event_id"`
		Title       string `mapstructure:"title"`
		TokenAmount int64  `mapstructure:"token_amount"`
	} `mapstructure:"forms"`
}

// LoadSeed reads a seed file; the format follows the file extension.
func LoadSeed(path string) (*Seed, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seed Seed
	if err := v.Unmarshal(&seed); err != nil {
		return nil, fmt.Errorf("unmarshaling seed: %w", err)
	}
	return &seed, nil
}

// Apply loads the seed into the given repositories.
func (s *Seed) Apply(events *EventRepo, candidates *CandidateRepo, tickets *TicketRepo, forms *FormRepo) {
	for _, e := range s.Events {
		events.Put(domain.Event{ID: e.ID, OwnerAccountID: e.Owner, Title: e.Title})
	}
	for _, c := range s.Candidates {
		candidates.Put(domain.Candidate{ID: c.ID, EventID: c.EventID, Name: c.Name})
	}
	for _, t := range s.Tickets {
		tickets.Put(domain.TicketTier{ID: t.ID, EventID: t.EventID, Name: t.Name, Price: t.Price, AvailableQuantity: t.Quantity})
	}
	for _, f := range s.Forms {
		forms.Put(domain.Form{ID: f.ID, EventID: f.EventID, Title: f.Title, TokenAmount: f.TokenAmount})
	}
}
