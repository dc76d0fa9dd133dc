package sampledata

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned for unusable generator settings.
var ErrInvalidConfig = errors.New("invalid sample data config")

// Config holds generator settings.
type Config struct {
	Transactions int
	Tickets      int
	Customers    int
	Start        time.Time
	Days         int
	Seed         int64

	// RefundRate is the share of transactions with a refund.
	RefundRate float64
	// OrphanTicketRate is the share of tickets raised by customers with no transaction.
	OrphanTicketRate float64
	// PadCategories surrounds some category values with spaces.
	PadCategories bool
}

// DefaultConfig returns settings that give a readable dashboard.
func DefaultConfig() Config {
	return Config{
		Transactions:     2000,
		Tickets:          300,
		Customers:        400,
		Start:            time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Days:             90,
		Seed:             1,
		RefundRate:       0.12,
		OrphanTicketRate: 0.05,
		PadCategories:    true,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	var problems []string
	if c.Transactions < 0 {
		problems = append(problems, "transactions must be >= 0")
	}
	if c.Tickets < 0 {
		problems = append(problems, "tickets must be >= 0")
	}
	if c.Customers <= 0 {
		problems = append(problems, "customers must be > 0")
	}
	if c.Days <= 0 {
		problems = append(problems, "days must be > 0")
	}
	if c.RefundRate < 0 || c.RefundRate > 1 {
		problems = append(problems, "refund rate must be within [0,1]")
	}
	if c.OrphanTicketRate < 0 || c.OrphanTicketRate > 1 {
		problems = append(problems, "orphan ticket rate must be within [0,1]")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, problems)
	}
	return nil
}
