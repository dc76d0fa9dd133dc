package csvsource

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/opsboard/internal/domain/model"
	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order; any time part is dropped.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

var errEmptyValue = errors.New("empty value")

func parseDate(raw string) (model.Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.Date{}, errEmptyValue
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}
	return model.Date{}, fmt.Errorf("no known date layout matches")
}

func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, errEmptyValue
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
