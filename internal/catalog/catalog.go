// Package catalog implements the product catalog: filtered, sorted and
// paginated retrieval plus create/update/delete over a JSON-file record store.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lromero/filecart/internal/storage/jsonstore"
)

// Product is a catalog record. Identifiers are positive integers assigned
// sequentially (max existing + 1, starting at 1).
type Product struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Category     string  `json:"category,omitempty"`
	Availability string  `json:"availability,omitempty"`
}

// ProductCreate carries the fields required to create a product.
type ProductCreate struct {
	Name         string  `json:"name"         validate:"required"`
	Description  string  `json:"description"  validate:"required"`
	Price        float64 `json:"price"        validate:"required,gt=0"`
	Category     string  `json:"category"`
	Availability string  `json:"availability"`
}

// ProductUpdate is a partial update: nil fields keep the current value,
// non-nil fields overwrite it.
type ProductUpdate struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	Category     *string  `json:"category"`
	Availability *string  `json:"availability"`
}

// Condition is one case-insensitive substring test against a named field.
type Condition struct {
	Field    string
	Contains string
}

// Filter is an OR-combination of conditions: a product matches when any
// condition matches. An empty filter matches everything.
type Filter []Condition

// Matches reports whether p satisfies the filter.
func (f Filter) Matches(p Product) bool {
	if len(f) == 0 {
		return true
	}
	for _, c := range f {
		if c.matches(p) {
			return true
		}
	}
	return false
}

func (c Condition) matches(p Product) bool {
	var value string
	switch strings.ToLower(c.Field) {
	case "name":
		value = p.Name
	case "description":
		value = p.Description
	case "category":
		value = p.Category
	case "availability":
		value = p.Availability
	default:
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(c.Contains))
}

// SortOrder selects the price ordering applied by List.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListOptions controls sorting and pagination. A Limit of zero returns the
// full sequence. Skip is the number of leading records to drop and is
// applied strictly after filter and sort.
type ListOptions struct {
	Sort  SortOrder
	Limit int
	Skip  int
}

// Catalog defines the operations for managing products.
type Catalog interface {
	// List returns products matching filter, ordered and paginated per opts.
	List(ctx context.Context, filter Filter, opts ListOptions) ([]Product, error)

	// Count returns the number of products matching filter, using the same
	// predicate as List.
	Count(ctx context.Context, filter Filter) (int, error)

	// FindByID retrieves a single product.
	// Returns ErrNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// Create assigns the next sequential identifier, persists and returns
	// the new product.
	Create(ctx context.Context, in ProductCreate) (*Product, error)

	// Update shallow-merges the non-nil fields of in onto the stored record.
	// Returns ErrNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, in ProductUpdate) (*Product, error)

	// DeleteByID removes a product, persisting only when something was
	// actually removed. Returns ErrNotFound if no record matched.
	DeleteByID(ctx context.Context, id int64) error
}

// Service implements Catalog over a JSON-file record store.
type Service struct {
	store *jsonstore.Store[Product]
}

// NewService creates a catalog service backed by the provided store.
func NewService(store *jsonstore.Store[Product]) *Service {
	return &Service{store: store}
}

var _ Catalog = (*Service)(nil)

// List loads all products, then applies filter, sort and pagination in that
// order. Insertion order is preserved among matches unless a sort is given.
func (s *Service) List(ctx context.Context, filter Filter, opts ListOptions) ([]Product, error) {
	products, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	filtered := products[:0:0]
	for _, p := range products {
		if filter.Matches(p) {
			filtered = append(filtered, p)
		}
	}

	switch opts.Sort {
	case SortAsc:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price < filtered[j].Price })
	case SortDesc:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price > filtered[j].Price })
	}

	if opts.Limit > 0 {
		if opts.Skip >= len(filtered) {
			return []Product{}, nil
		}
		end := opts.Skip + opts.Limit
		if end > len(filtered) {
			end = len(filtered)
		}
		filtered = filtered[opts.Skip:end]
	}
	return filtered, nil
}

// Count returns the number of products matching filter.
func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	products, err := s.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load products: %w", err)
	}
	count := 0
	for _, p := range products {
		if filter.Matches(p) {
			count++
		}
	}
	return count, nil
}

// FindByID retrieves a product by its ID via a linear scan.
func (s *Service) FindByID(ctx context.Context, id int64) (*Product, error) {
	products, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for _, p := range products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// Create assigns the next sequential identifier, appends and persists.
func (s *Service) Create(ctx context.Context, in ProductCreate) (*Product, error) {
	// Field presence is the caller's contract; name and price are checked
	// again here since nothing sensible can be stored without them.
	if in.Name == "" || in.Price == 0 {
		return nil, fmt.Errorf("%w: name and price are required", ErrInvalidProduct)
	}

	var created Product
	err := s.store.Mutate(ctx, func(products []Product) ([]Product, error) {
		created = Product{
			ID:           nextID(products),
			Name:         in.Name,
			Description:  in.Description,
			Price:        in.Price,
			Category:     in.Category,
			Availability: in.Availability,
		}
		return append(products, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &created, nil
}

// Update shallow-merges the provided fields onto the stored record.
func (s *Service) Update(ctx context.Context, id int64, in ProductUpdate) (*Product, error) {
	var updated Product
	err := s.store.Mutate(ctx, func(products []Product) ([]Product, error) {
		for i := range products {
			if products[i].ID != id {
				continue
			}
			merge(&products[i], in)
			updated = products[i]
			return products, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return &updated, nil
}

// DeleteByID removes the product with the given identifier.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	err := s.store.Mutate(ctx, func(products []Product) ([]Product, error) {
		for i := range products {
			if products[i].ID == id {
				return append(products[:i], products[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

func merge(p *Product, in ProductUpdate) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Availability != nil {
		p.Availability = *in.Availability
	}
}

// nextID returns max(existing ids) + 1, or 1 when the sequence is empty.
func nextID(products []Product) int64 {
	var max int64
	for _, p := range products {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}
