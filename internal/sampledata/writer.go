package sampledata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/opsboard/internal/adapters/csvsource"
)

const filePermission = 0o644

// Default file names read by the dashboard.
const (
	TransactionsFile = "enriched_data.csv"
	TicketsFile      = "tickets_cleaned.csv"
)

// WriteFiles writes both tables into dir and returns their paths.
func WriteFiles(dir string, ds Dataset) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create %s: %w", dir, err)
	}
	txPath := filepath.Join(dir, TransactionsFile)
	tkPath := filepath.Join(dir, TicketsFile)

	txRows := make([][]string, 0, len(ds.Transactions)+1)
	txRows = append(txRows, []string{
		csvsource.ColTransactionID, csvsource.ColCustomerID, csvsource.ColProductCategory,
		csvsource.ColProductName, csvsource.ColDate, csvsource.ColRevenue, csvsource.ColRefundAmount,
	})
	for _, tx := range ds.Transactions {
		txRows = append(txRows, []string{
			tx.TransactionID, tx.CustomerID, tx.ProductCategory, tx.ProductName,
			tx.Date.String(), tx.Revenue.StringFixed(2), tx.RefundAmount.StringFixed(2),
		})
	}
	if err := writeCSV(txPath, txRows); err != nil {
		return "", "", err
	}

	tkRows := make([][]string, 0, len(ds.Tickets)+1)
	tkRows = append(tkRows, []string{csvsource.ColCustomerID, csvsource.ColDateLogged, csvsource.ColComplaintCategory})
	for _, t := range ds.Tickets {
		tkRows = append(tkRows, []string{t.CustomerID, t.DateLogged.String(), t.ComplaintCategory})
	}
	if err := writeCSV(tkPath, tkRows); err != nil {
		return "", "", err
	}
	return txPath, tkPath, nil
}

// writeCSV writes to a temp file and renames it so readers never see a
// partial file.
func writeCSV(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sample-*.csv")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), filePermission); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
