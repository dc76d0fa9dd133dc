// Package sampledata generates synthetic transaction and ticket datasets.
package sampledata

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/okian/opsboard/internal/domain/model"
	"github.com/okian/opsboard/pkg/logger"
	"github.com/shopspring/decimal"
)

type product struct {
	name     string
	category string
	minPrice int64 // cents
	maxPrice int64
}

var catalog = []product{
	{"Wireless Headphones", "Electronics", 4900, 24900},
	{"Smartphone", "Electronics", 19900, 99900},
	{"USB-C Charger", "Accessories", 990, 3990},
	{"Phone Case", "Accessories", 790, 2990},
	{"Laptop Stand", "Accessories", 1990, 5990},
	{"Smart Watch", "Wearables", 9900, 39900},
	{"Fitness Band", "Wearables", 2900, 8900},
	{"Bluetooth Speaker", "Audio", 2900, 14900},
	{"Soundbar", "Audio", 9900, 49900},
	{"Gaming Mouse", "Gaming", 2900, 9900},
	{"Mechanical Keyboard", "Gaming", 5900, 18900},
}

var complaints = []string{
	"Late Delivery",
	"Damaged Item",
	"Wrong Item",
	"Battery Issue",
	"Connectivity Problem",
	"Billing Error",
	"Missing Parts",
}

// Dataset is a generated pair of tables.
type Dataset struct {
	Transactions []model.Transaction
	Tickets      []model.Ticket
}

// Generate builds a dataset. The same Config always yields the same rows.
func Generate(ctx context.Context, cfg Config) (Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return Dataset{}, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible fixtures, not secrets

	customers := make([]string, cfg.Customers)
	for i := range customers {
		customers[i] = fmt.Sprintf("CUST-%05d", i+1)
	}
	// Most customers stick to one category; some buy across several.
	home := make(map[string]int, len(customers))
	for _, c := range customers {
		home[c] = rng.Intn(len(catalog))
	}

	ds := Dataset{
		Transactions: make([]model.Transaction, 0, cfg.Transactions),
		Tickets:      make([]model.Ticket, 0, cfg.Tickets),
	}
	buyers := make([]model.Transaction, 0, cfg.Transactions)

	for i := 0; i < cfg.Transactions; i++ {
		if i%1024 == 0 && ctx.Err() != nil {
			return Dataset{}, ctx.Err()
		}
		customer := customers[rng.Intn(len(customers))]
		p := catalog[home[customer]]
		if rng.Float64() < 0.2 {
			p = catalog[rng.Intn(len(catalog))]
		}
		price := p.minPrice + rng.Int63n(p.maxPrice-p.minPrice+1)
		revenue := decimal.New(price, -2)
		refund := decimal.Zero
		if rng.Float64() < cfg.RefundRate {
			// full or partial refund
			if rng.Intn(2) == 0 {
				refund = revenue
			} else {
				refund = decimal.New(price*int64(10+rng.Intn(80))/100, -2)
			}
		}
		category := p.category
		if cfg.PadCategories && rng.Intn(10) == 0 {
			category = " " + category + " "
		}
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return Dataset{}, fmt.Errorf("generate transaction id: %w", err)
		}
		tx := model.Transaction{
			TransactionID:   id.String(),
			CustomerID:      customer,
			ProductCategory: category,
			ProductName:     p.name,
			Date:            model.DateOf(cfg.Start.AddDate(0, 0, rng.Intn(cfg.Days))),
			Revenue:         revenue,
			RefundAmount:    refund,
		}
		ds.Transactions = append(ds.Transactions, tx)
		buyers = append(buyers, tx)
	}

	for i := 0; i < cfg.Tickets; i++ {
		var t model.Ticket
		if len(buyers) == 0 || rng.Float64() < cfg.OrphanTicketRate {
			t = model.Ticket{
				CustomerID: fmt.Sprintf("CUST-X%04d", rng.Intn(10000)),
				DateLogged: model.DateOf(cfg.Start.AddDate(0, 0, rng.Intn(cfg.Days))),
			}
		} else {
			tx := buyers[rng.Intn(len(buyers))]
			logged := tx.Date.AddDate(0, 0, rng.Intn(14))
			t = model.Ticket{CustomerID: tx.CustomerID, DateLogged: model.DateOf(logged)}
		}
		t.ComplaintCategory = complaints[rng.Intn(len(complaints))]
		ds.Tickets = append(ds.Tickets, t)
	}

	logger.Named("sampledata").Info(ctx, "generated sample data",
		logger.Int("transactions", len(ds.Transactions)),
		logger.Int("tickets", len(ds.Tickets)),
		logger.Int64("seed", cfg.Seed))
	return ds, nil
}
