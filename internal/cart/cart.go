// Package cart implements the cart ledger: carts holding ordered line items
// of (product reference, quantity), persisted in a JSON-file record store.
package cart

import (
	"context"
	"fmt"

	"github.com/lromero/filecart/internal/storage/jsonstore"
)

// Item is one line item of a cart. JSON field names match the persisted
// cart file layout.
type Item struct {
	ProductID int64 `json:"product"`
	Quantity  int64 `json:"quantity"`
}

// Cart is an ordered sequence of line items with at most one item per
// distinct product reference.
type Cart struct {
	ID    int64  `json:"id"`
	Items []Item `json:"products"`
}

// Ledger defines the operations for managing carts.
type Ledger interface {
	// Create assigns the next sequential identifier and persists a new
	// empty cart.
	Create(ctx context.Context) (*Cart, error)

	// FindAll returns all carts.
	FindAll(ctx context.Context) ([]Cart, error)

	// FindByID retrieves a single cart.
	// Returns ErrCartNotFound if no cart exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Cart, error)

	// AddItem adds quantity units of a product to the cart, incrementing
	// the existing line item when the product is already present.
	// Returns ErrCartNotFound if no cart exists with the given ID.
	AddItem(ctx context.Context, cartID, productID, quantity int64) (*Cart, error)

	// RemoveItem removes the matching line item. A missing line item is a
	// successful no-op as long as the cart itself exists.
	RemoveItem(ctx context.Context, cartID, productID int64) (*Cart, error)

	// UpdateItemQuantity sets the quantity of an existing line item,
	// removing it when quantity is zero or below.
	// Returns ErrItemNotFound when the cart holds no such line item.
	UpdateItemQuantity(ctx context.Context, cartID, productID, quantity int64) (*Cart, error)

	// Clear empties the cart's line-item sequence.
	Clear(ctx context.Context, cartID int64) (*Cart, error)
}

// Service implements Ledger over a JSON-file record store. Every mutation
// is one read-modify-write cycle over the full cart collection.
type Service struct {
	store *jsonstore.Store[Cart]
}

// NewService creates a cart service backed by the provided store.
func NewService(store *jsonstore.Store[Cart]) *Service {
	return &Service{store: store}
}

var _ Ledger = (*Service)(nil)

// Create appends a new empty cart with the next sequential identifier.
func (s *Service) Create(ctx context.Context) (*Cart, error) {
	var created Cart
	err := s.store.Mutate(ctx, func(carts []Cart) ([]Cart, error) {
		created = Cart{ID: nextID(carts), Items: []Item{}}
		return append(carts, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &created, nil
}

// FindAll returns the full cart collection.
func (s *Service) FindAll(ctx context.Context) ([]Cart, error) {
	carts, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load carts: %w", err)
	}
	return carts, nil
}

// FindByID retrieves a cart by its ID via a linear scan.
func (s *Service) FindByID(ctx context.Context, id int64) (*Cart, error) {
	carts, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load carts: %w", err)
	}
	for _, c := range carts {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, ErrCartNotFound
}

// AddItem merges quantity into an existing line item for the product or
// appends a new one, then persists the full collection.
func (s *Service) AddItem(ctx context.Context, cartID, productID, quantity int64) (*Cart, error) {
	updated, err := s.mutateCart(ctx, cartID, func(c *Cart) error {
		for i := range c.Items {
			if c.Items[i].ProductID == productID {
				c.Items[i].Quantity += quantity
				return nil
			}
		}
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add product %d to cart %d: %w", productID, cartID, err)
	}
	return updated, nil
}

// RemoveItem drops the matching line item when present.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID int64) (*Cart, error) {
	updated, err := s.mutateCart(ctx, cartID, func(c *Cart) error {
		removeItem(c, productID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove product %d from cart %d: %w", productID, cartID, err)
	}
	return updated, nil
}

// UpdateItemQuantity sets the quantity of an existing line item. A quantity
// of zero or below removes the item instead.
func (s *Service) UpdateItemQuantity(ctx context.Context, cartID, productID, quantity int64) (*Cart, error) {
	updated, err := s.mutateCart(ctx, cartID, func(c *Cart) error {
		for i := range c.Items {
			if c.Items[i].ProductID != productID {
				continue
			}
			if quantity <= 0 {
				removeItem(c, productID)
			} else {
				c.Items[i].Quantity = quantity
			}
			return nil
		}
		return ErrItemNotFound
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d in cart %d: %w", productID, cartID, err)
	}
	return updated, nil
}

// Clear empties the cart's line-item sequence.
func (s *Service) Clear(ctx context.Context, cartID int64) (*Cart, error) {
	updated, err := s.mutateCart(ctx, cartID, func(c *Cart) error {
		c.Items = []Item{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clear cart %d: %w", cartID, err)
	}
	return updated, nil
}

// mutateCart locates the target cart inside one read-modify-write cycle,
// applies fn to an in-memory copy and writes the full collection back.
func (s *Service) mutateCart(ctx context.Context, cartID int64, fn func(c *Cart) error) (*Cart, error) {
	var result Cart
	err := s.store.Mutate(ctx, func(carts []Cart) ([]Cart, error) {
		for i := range carts {
			if carts[i].ID != cartID {
				continue
			}
			if err := fn(&carts[i]); err != nil {
				return nil, err
			}
			result = carts[i]
			return carts, nil
		}
		return nil, ErrCartNotFound
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func removeItem(c *Cart, productID int64) {
	items := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			items = append(items, it)
		}
	}
	c.Items = items
}

// nextID returns max(existing ids) + 1, or 1 when the sequence is empty.
func nextID(carts []Cart) int64 {
	var max int64
	for _, c := range carts {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}
