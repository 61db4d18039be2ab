// Package repo wraps the query factories with the operations the web and
// CLI layers need.
package repo

import (
	"context"

	"github.com/fleetdesk/taxi/orm"
	"github.com/fleetdesk/taxi/scope"
)

// Page is one window of an id-ordered list.
type Page[T any] struct {
	Items    []T
	Number   int
	Size     int
	Total    int64
	NumPages int
}

// NewPage computes paging metadata. A list always has at least one page,
// even when empty. Numbers below 1 are clamped to 1; numbers past the last
// page are kept so the caller can render an empty page.
func NewPage[T any](items []T, number, size int, total int64) Page[T] {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = 1
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	return Page[T]{Items: items, Number: number, Size: size, Total: total, NumPages: pages}
}

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool     { return p.Number < p.NumPages }

// HasOtherPages reports whether pagination controls are worth showing.
func (p Page[T]) HasOtherPages() bool { return p.NumPages > 1 }

// PreviousNumber and NextNumber are the neighbouring page numbers, only
// meaningful when HasPrevious or HasNext hold.
func (p Page[T]) PreviousNumber() int { return p.Number - 1 }
func (p Page[T]) NextNumber() int     { return p.Number + 1 }

func paginate[T any](ctx context.Context, q *orm.Query[T], number, size int) (Page[T], error) {
	total, err := q.Count(ctx)
	if err != nil {
		return Page[T]{}, err //nolint:wrapcheck // callers wrap
	}
	p := NewPage[T](nil, number, size, total)
	if p.Number > p.NumPages {
		p.Items = []T{}
		return p, nil
	}
	items, err := q.OrderBy(q.Column("id")).Scopes(scope.Paginate(p.Number, p.Size)...).All(ctx)
	if err != nil {
		return Page[T]{}, err //nolint:wrapcheck // callers wrap
	}
	p.Items = items
	return p, nil
}

func deleteByID[T any](ctx context.Context, q *orm.Query[T], id int) error {
	n, err := q.WherePK(id).DeleteCount(ctx)
	if err != nil {
		return err //nolint:wrapcheck // callers wrap
	}
	if n == 0 {
		return orm.ErrNotFound
	}
	return nil
}
