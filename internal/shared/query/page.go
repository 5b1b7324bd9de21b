package query

import (
	"net/url"
	"strconv"

	"github.com/doug-martin/goqu/v9"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page là pagination params đã được normalize
type Page struct {
	Page  int
	Limit int
}

// ParsePage đọc page/limit; giá trị thiếu hoặc không hợp lệ dùng default, limit bị cap ở MaxLimit
func ParsePage(params url.Values) Page {
	p := Page{Page: 1, Limit: DefaultLimit}

	if n, err := strconv.Atoi(params.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(params.Get("limit")); err == nil && n > 0 {
		if n > MaxLimit {
			n = MaxLimit
		}
		p.Limit = n
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Apply gắn LIMIT/OFFSET vào dataset
func (p Page) Apply(ds *goqu.SelectDataset) *goqu.SelectDataset {
	return ds.Limit(uint(p.Limit)).Offset(uint(p.Offset()))
}
