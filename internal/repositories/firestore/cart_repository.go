package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	pfirestore "github.com/naga-sai1/inv-ecommerce/internal/platform/firestore"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

const (
	cartCollection      = "carts"
	cartLinesCollection = "lines"
)

// CartRepository stores one document per (cart key, product id) under carts/{key}/lines.
type CartRepository struct {
	provider *pfirestore.Provider
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{provider: provider}, nil
}

func (r *CartRepository) lines(cartKey string) (*pfirestore.Collection[cartLineDocument], error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("cart repository not initialised")
	}
	key := strings.TrimSpace(cartKey)
	if key == "" || strings.Contains(key, "/") {
		return nil, fmt.Errorf("cart repository: invalid cart key %q", cartKey)
	}
	return pfirestore.NewCollection[cartLineDocument](r.provider, cartCollection+"/"+key+"/"+cartLinesCollection), nil
}

// GetCart returns the lines ordered by the time they were added. Unknown keys yield an empty cart.
func (r *CartRepository) GetCart(ctx context.Context, cartKey string) (domain.Cart, error) {
	base, err := r.lines(cartKey)
	if err != nil {
		return domain.Cart{}, err
	}
	docs, err := base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("addedAt", firestore.Asc)
	})
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{Key: cartKey, Lines: make([]domain.CartLine, 0, len(docs))}
	for _, doc := range docs {
		line := domain.CartLine{
			ProductID: doc.ID,
			Quantity:  doc.Data.Quantity,
			AddedAt:   doc.Data.AddedAt.UTC(),
			UpdatedAt: doc.Data.UpdatedAt.UTC(),
		}
		if line.UpdatedAt.After(cart.UpdatedAt) {
			cart.UpdatedAt = line.UpdatedAt
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}

// UpsertLine merges the line so addedAt survives quantity changes.
func (r *CartRepository) UpsertLine(ctx context.Context, cartKey string, line domain.CartLine) error {
	base, err := r.lines(cartKey)
	if err != nil {
		return err
	}
	productID := strings.TrimSpace(line.ProductID)
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := base.Doc(ctx, productID)
		if err != nil {
			return err
		}
		doc := cartLineDocument{
			Quantity:  line.Quantity,
			AddedAt:   line.AddedAt.UTC(),
			UpdatedAt: line.UpdatedAt.UTC(),
		}
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			existing, err := base.Decode(snap)
			if err != nil {
				return fmt.Errorf("decode cart line %s: %w", productID, err)
			}
			if !existing.Data.AddedAt.IsZero() {
				doc.AddedAt = existing.Data.AddedAt
			}
		case !isNotFound(err):
			return err
		}
		return tx.Set(ref, doc)
	})
}

func (r *CartRepository) DeleteLine(ctx context.Context, cartKey string, productID string) error {
	base, err := r.lines(cartKey)
	if err != nil {
		return err
	}
	return base.Delete(ctx, strings.TrimSpace(productID))
}

// Clear deletes every line document of the cart in one transaction.
func (r *CartRepository) Clear(ctx context.Context, cartKey string) error {
	base, err := r.lines(cartKey)
	if err != nil {
		return err
	}
	coll, err := base.Ref(ctx)
	if err != nil {
		return err
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return deleteAll(tx, tx.Documents(coll))
	})
}

type cartLineDocument struct {
	Quantity  int       `firestore:"quantity"`
	AddedAt   time.Time `firestore:"addedAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func deleteAll(tx *firestore.Transaction, iter *firestore.DocumentIterator) error {
	defer iter.Stop()
	var refs []*firestore.DocumentRef
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		refs = append(refs, snap.Ref)
	}
	for _, ref := range refs {
		if err := tx.Delete(ref); err != nil {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

var _ repositories.CartRepository = (*CartRepository)(nil)
