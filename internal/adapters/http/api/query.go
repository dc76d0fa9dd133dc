package api

import (
	"net/url"
	"strings"

	"github.com/okian/opsboard/internal/domain/model"
	"github.com/okian/opsboard/internal/domain/types"
)

// parseQuery reads repeated category and date parameters. A missing category
// parameter selects every category; category= with no value selects none.
func parseQuery(values url.Values) (types.Query, error) {
	const op = "api.parse_query"

	var q types.Query
	raw, ok := values["category"]
	if !ok {
		q.AllCategories = true
	} else {
		q.Categories = make([]string, 0, len(raw))
		for _, c := range raw {
			if c = strings.TrimSpace(c); c != "" {
				q.Categories = append(q.Categories, c)
			}
		}
	}

	for _, d := range values["date"] {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		parsed, err := model.ParseDate(d)
		if err != nil {
			return types.Query{}, WrapKind(op, ErrBadRequest, err)
		}
		q.Dates = append(q.Dates, parsed)
	}
	return q, nil
}
