package store

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListParams is the shared pagination/search envelope for collection queries.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
}

// Normalize clamps the paging values into range so stores never have to.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// Offset is the SQL offset for the normalized page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TitleFilter narrows title listings. Zero values mean "no filter".
type TitleFilter struct {
	ListParams
	CategorySlug string
	GenreSlugs   []string
	Name         string
	Year         int
}
