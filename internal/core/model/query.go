package model

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultLogLimit = 100
)

// PageQuery carries page based pagination from admin list endpoints.
type PageQuery struct {
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	SearchText string `form:"searchText"`
	ClientID   string `form:"clientId"`
}

// Normalize fills defaults and caps the page size.
func (p PageQuery) Normalize() PageQuery {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p PageQuery) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ClientModelQuery is the offset based listing a client uses for its models.
type ClientModelQuery struct {
	ClientID    string
	ModelTypeID string
	Search      string
	Limit       int
	Offset      int
	SortField   string
	SortDesc    bool
}
