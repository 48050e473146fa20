package pagination

import "math"

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into [1, ...] and the size into [1, maxSize],
// substituting defaultSize for a non-positive size.
func Normalize(number, size, defaultSize, maxSize int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return Page{Number: number, Size: size}
}

// MaxNumber is the largest page number whose offset stays within int32
// for pages of maxSize rows.
func MaxNumber(maxSize int) int {
	if maxSize <= 0 {
		return math.MaxInt32
	}
	return math.MaxInt32 / maxSize
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit returns the page size.
func (p Page) Limit() int {
	return p.Size
}

// HasNext reports whether rows remain after this page.
func (p Page) HasNext(total int64) bool {
	return int64(p.Offset()+p.Size) < total
}

// HasPrevious reports whether this is not the first page.
func (p Page) HasPrevious() bool {
	return p.Number > 1
}
