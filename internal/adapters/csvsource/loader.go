// Package csvsource reads the transaction and ticket datasets from CSV files.
package csvsource

import (
	"context"
	"strings"
	"time"

	"github.com/okian/opsboard/internal/domain/dedupe"
	"github.com/okian/opsboard/internal/domain/model"
	"github.com/okian/opsboard/pkg/logger"
	"github.com/okian/opsboard/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Transaction columns.
const (
	ColTransactionID   = "Transaction_ID"
	ColCustomerID      = "Customer_ID"
	ColProductCategory = "Product_Category"
	ColProductName     = "Product_Name"
	ColDate            = "Date"
	ColRevenue         = "Revenue"
	ColRefundAmount    = "Refund_Amount"
)

// Ticket columns.
const (
	ColDateLogged        = "Date_Logged"
	ColComplaintCategory = "Complaint_Category"
)

var (
	transactionColumns = []string{
		ColTransactionID, ColCustomerID, ColProductCategory, ColProductName,
		ColDate, ColRevenue, ColRefundAmount,
	}
	ticketColumns = []string{ColCustomerID, ColDateLogged, ColComplaintCategory}
)

// Datasets is the result of Load.
type Datasets = model.Datasets

// Loader reads datasets from disk.
type Loader struct {
	log logger.Logger
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads both files concurrently. The first error cancels the other read
// and aborts the whole load.
func (l *Loader) Load(ctx context.Context, txPath, ticketPath string) (Datasets, error) {
	var ds Datasets
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, dups, err := l.loadTransactions(gctx, txPath)
		ds.Transactions, ds.DuplicateTransactionIDs = txs, dups
		return err
	})
	g.Go(func() error {
		tickets, err := l.LoadTickets(gctx, ticketPath)
		ds.Tickets = tickets
		return err
	})
	if err := g.Wait(); err != nil {
		return Datasets{}, err
	}
	return ds, nil
}

// LoadTransactions reads the transaction dataset.
func (l *Loader) LoadTransactions(ctx context.Context, path string) ([]model.Transaction, error) {
	txs, _, err := l.loadTransactions(ctx, path)
	return txs, err
}

func (l *Loader) loadTransactions(ctx context.Context, path string) ([]model.Transaction, int, error) {
	start := time.Now()
	seen := dedupe.New()
	txs := make([]model.Transaction, 0)

	err := readTable(ctx, path, transactionColumns, func(r row) error {
		date, err := parseDate(r.get(ColDate))
		if err != nil {
			return r.parseErr(ColDate, err)
		}
		revenue, err := parseAmount(r.get(ColRevenue))
		if err != nil {
			return r.parseErr(ColRevenue, err)
		}
		refund, err := parseAmount(r.get(ColRefundAmount))
		if err != nil {
			return r.parseErr(ColRefundAmount, err)
		}
		id := r.get(ColTransactionID)
		seen.SeenAndRecord(id)
		txs = append(txs, model.Transaction{
			TransactionID:   id,
			CustomerID:      r.get(ColCustomerID),
			ProductCategory: strings.TrimSpace(r.get(ColProductCategory)),
			ProductName:     r.get(ColProductName),
			Date:            date,
			Revenue:         revenue,
			RefundAmount:    refund,
		})
		return nil
	})
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordDatasetLoad(metrics.DatasetTransactions, metrics.OutcomeError, elapsed)
		l.log.Error(ctx, "transactions load failed", logger.String("path", path), logger.Error(err))
		return nil, 0, err
	}

	metrics.RecordDatasetLoad(metrics.DatasetTransactions, metrics.OutcomeSuccess, elapsed)
	metrics.UpdateDatasetRows(metrics.DatasetTransactions, len(txs))
	metrics.UpdateDuplicateTransactionIDs(seen.Duplicates())
	if seen.Duplicates() > 0 {
		l.log.Warn(ctx, "duplicate transaction ids",
			logger.String("path", path),
			logger.Int("duplicates", seen.Duplicates()))
	}
	l.log.Info(ctx, "transactions loaded",
		logger.String("path", path),
		logger.Int("rows", len(txs)),
		logger.Float64("duration_ms", elapsed))
	return txs, seen.Duplicates(), nil
}

// LoadTickets reads the support ticket dataset.
func (l *Loader) LoadTickets(ctx context.Context, path string) ([]model.Ticket, error) {
	start := time.Now()
	tickets := make([]model.Ticket, 0)

	err := readTable(ctx, path, ticketColumns, func(r row) error {
		logged, err := parseDate(r.get(ColDateLogged))
		if err != nil {
			return r.parseErr(ColDateLogged, err)
		}
		tickets = append(tickets, model.Ticket{
			CustomerID:        r.get(ColCustomerID),
			DateLogged:        logged,
			ComplaintCategory: r.get(ColComplaintCategory),
		})
		return nil
	})
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordDatasetLoad(metrics.DatasetTickets, metrics.OutcomeError, elapsed)
		l.log.Error(ctx, "tickets load failed", logger.String("path", path), logger.Error(err))
		return nil, err
	}

	metrics.RecordDatasetLoad(metrics.DatasetTickets, metrics.OutcomeSuccess, elapsed)
	metrics.UpdateDatasetRows(metrics.DatasetTickets, len(tickets))
	l.log.Info(ctx, "tickets loaded",
		logger.String("path", path),
		logger.Int("rows", len(tickets)),
		logger.Float64("duration_ms", elapsed))
	return tickets, nil
}

// Load reads both datasets with a default Loader.
func Load(ctx context.Context, txPath, ticketPath string) (Datasets, error) {
	return NewLoader().Load(ctx, txPath, ticketPath)
}

// LoadTransactions reads the transaction dataset with a default Loader.
func LoadTransactions(ctx context.Context, path string) ([]model.Transaction, error) {
	return NewLoader().LoadTransactions(ctx, path)
}

// LoadTickets reads the ticket dataset with a default Loader.
func LoadTickets(ctx context.Context, path string) ([]model.Ticket, error) {
	return NewLoader().LoadTickets(ctx, path)
}
