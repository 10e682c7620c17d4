package shared

// Filter provides common list query options shared by repository filters
type Filter struct {
	Search   string
	OrderBy  string
	OrderDir string
	Page     int
	PageSize int
}

// Normalize clamps pagination to sane bounds
func (f *Filter) Normalize(defaultPageSize, maxPageSize int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

// Offset returns the row offset for the current page
func (f *Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
