// Package pagination normalizes page/limit query values and builds the
// response meta shared by every list endpoint.
package pagination

const (
	DefaultLimit int32 = 10
	MaxLimit     int32 = 50
)

// Request is embedded in list inputs. Zero means "not provided".
type Request struct {
	Page  int32 `validate:"gte=0"`
	Limit int32 `validate:"gte=0,lte=50"`
}

// Normalize applies the defaults: page 1 and limit DefaultLimit.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	r.Limit = min(r.Limit, MaxLimit)
	return r
}

// Offset is computed in int64 so a page near MaxInt32 cannot wrap negative.
func (r Request) Offset() int64 {
	n := r.Normalize()
	return int64(n.Page-1) * int64(n.Limit)
}

type Meta struct {
	Page       int32
	Limit      int32
	Total      int64
	TotalPages int64
}

func NewMeta(r Request, total int64) Meta {
	n := r.Normalize()

	pages := total / int64(n.Limit)
	if total%int64(n.Limit) != 0 {
		pages++
	}

	return Meta{Page: n.Page, Limit: n.Limit, Total: total, TotalPages: pages}
}

// Map is the form the router writes under "meta".
func (m Meta) Map() map[string]any {
	return map[string]any{
		"page":        m.Page,
		"limit":       m.Limit,
		"total":       m.Total,
		"total_pages": m.TotalPages,
	}
}
