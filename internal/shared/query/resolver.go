// Package query biến query parameters của list endpoints thành goqu expressions.
// Chỉ các field được khai báo trong Spec mới chạm tới SQL; param lạ bị bỏ qua.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"bookshelf-api/internal/shared/utils"
)

// Dialect dùng cho mọi select dataset của repositories
const Dialect = "postgres"

// Match là cách so khớp của một filter
type Match int

const (
	// Contains: case-insensitive substring (ILIKE '%v%')
	Contains Match = iota
	// Exact: so sánh bằng trên giá trị string
	Exact
	// Int: so sánh bằng trên số nguyên, giá trị không parse được bị bỏ qua
	Int
)

// Filter map một query param sang một column
type Filter struct {
	Param  string
	Column string
	Match  Match
}

// Spec là whitelist table của một list endpoint
type Spec struct {
	Filters []Filter

	SearchParam   string
	SearchColumns []string

	OrderParam string
	// Orderable map tên field public → column
	Orderable map[string]string
	// DefaultOrder là tên field trong Orderable, prefix "-" cho DESC
	DefaultOrder string
	// TieBreaker column luôn được append ASC để thứ tự ổn định giữa các page
	TieBreaker string
}

// Resolved là kết quả resolve một request
type Resolved struct {
	Where []exp.Expression
	Order []exp.OrderedExpression
}

// Resolve áp dụng spec lên params. Filters và search được AND với nhau, ordering áp dụng sau cùng
func (s Spec) Resolve(params url.Values) Resolved {
	var r Resolved

	for _, f := range s.Filters {
		if expr, ok := f.expression(params.Get(f.Param)); ok {
			r.Where = append(r.Where, expr)
		}
	}

	if expr, ok := s.searchExpression(params.Get(s.SearchParam)); ok {
		r.Where = append(r.Where, expr)
	}

	r.Order = s.orderExpressions(params.Get(s.OrderParam))
	return r
}

// Apply gắn WHERE và ORDER BY vào dataset
func (r Resolved) Apply(ds *goqu.SelectDataset) *goqu.SelectDataset {
	ds = r.ApplyFilters(ds)
	if len(r.Order) > 0 {
		ds = ds.Order(r.Order...)
	}
	return ds
}

// ApplyFilters chỉ gắn WHERE, dùng cho COUNT query
func (r Resolved) ApplyFilters(ds *goqu.SelectDataset) *goqu.SelectDataset {
	if len(r.Where) == 0 {
		return ds
	}
	return ds.Where(r.Where...)
}

func (f Filter) expression(raw string) (exp.Expression, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, false
	}

	col := goqu.I(f.Column)
	switch f.Match {
	case Contains:
		value = utils.SanitizeQuery(value)
		if value == "" {
			return nil, false
		}
		return col.ILike(containsPattern(value)), true
	case Exact:
		return col.Eq(value), true
	case Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, false
		}
		return col.Eq(n), true
	}
	return nil, false
}

func (s Spec) searchExpression(raw string) (exp.Expression, bool) {
	if s.SearchParam == "" || len(s.SearchColumns) == 0 {
		return nil, false
	}

	term := utils.SanitizeQuery(raw)
	if term == "" {
		return nil, false
	}

	pattern := containsPattern(term)
	ors := make([]exp.Expression, 0, len(s.SearchColumns))
	for _, c := range s.SearchColumns {
		ors = append(ors, goqu.I(c).ILike(pattern))
	}
	return goqu.Or(ors...), true
}

func (s Spec) orderExpressions(raw string) []exp.OrderedExpression {
	column, desc, ok := s.orderColumn(strings.TrimSpace(raw))
	if !ok {
		column, desc, ok = s.orderColumn(s.DefaultOrder)
	}

	var order []exp.OrderedExpression
	if ok {
		if desc {
			order = append(order, goqu.I(column).Desc())
		} else {
			order = append(order, goqu.I(column).Asc())
		}
	}
	if s.TieBreaker != "" && column != s.TieBreaker {
		order = append(order, goqu.I(s.TieBreaker).Asc())
	}
	return order
}

// orderColumn resolve "field" / "-field" qua whitelist
func (s Spec) orderColumn(field string) (string, bool, bool) {
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")
	if field == "" {
		return "", false, false
	}

	column, ok := s.Orderable[field]
	if !ok {
		return "", false, false
	}
	return column, desc, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern escape wildcard của LIKE rồi bọc bằng %...%
func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}
