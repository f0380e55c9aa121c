package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	pfirestore "github.com/naga-sai1/inv-ecommerce/internal/platform/firestore"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

const (
	ordersCollection     = "orders"
	orderLinesCollection = "lines"
)

// OrderRepository persists order headers in the orders collection.
type OrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.Collection[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		base:     pfirestore.NewCollection[orderDocument](provider, ordersCollection),
	}, nil
}

// Insert creates the header and reports a conflict if the id already exists.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	return r.base.Create(ctx, strings.TrimSpace(order.ID), newOrderDocument(order))
}

// Update replaces the header of an existing order.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.Doc(ctx, orderID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, newOrderDocument(order))
	})
}

func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	return r.base.Delete(ctx, strings.TrimSpace(orderID))
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List narrows by owner in Firestore and applies status, search, and ordering in process.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if uid := strings.TrimSpace(filter.UserID); uid != "" {
			q = q.Where("userId", "==", uid)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order := doc.Data.toDomain(doc.ID)
		if filter.Match(order) {
			orders = append(orders, order)
		}
	}
	slices.SortFunc(orders, repositories.CompareOrders)

	start, end, next, err := pagination.Window(len(orders), filter.Pagination.PageSize, filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}
	return domain.CursorPage[domain.Order]{Items: orders[start:end], NextPageToken: next}, nil
}

// OrderLineRepository stores line snapshots under orders/{id}/lines.
type OrderLineRepository struct {
	provider *pfirestore.Provider
}

// NewOrderLineRepository constructs a Firestore-backed order line repository.
func NewOrderLineRepository(provider *pfirestore.Provider) (*OrderLineRepository, error) {
	if provider == nil {
		return nil, errors.New("order line repository requires firestore provider")
	}
	return &OrderLineRepository{provider: provider}, nil
}

func (r *OrderLineRepository) lines(orderID string) (*pfirestore.Collection[orderLineDocument], error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("order line repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" || strings.Contains(id, "/") {
		return nil, fmt.Errorf("order line repository: invalid order id %q", orderID)
	}
	return pfirestore.NewCollection[orderLineDocument](r.provider, ordersCollection+"/"+id+"/"+orderLinesCollection), nil
}

// InsertAll creates every line in one transaction so a partial set is never visible.
func (r *OrderLineRepository) InsertAll(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	base, err := r.lines(orderID)
	if err != nil {
		return err
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, line := range lines {
			ref, err := base.Doc(ctx, lineDocumentID(line.Position))
			if err != nil {
				return err
			}
			if err := tx.Create(ref, orderLineDocument{
				Position:  line.Position,
				ProductID: line.ProductID,
				Name:      line.Name,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderLineRepository) DeleteAll(ctx context.Context, orderID string) error {
	base, err := r.lines(orderID)
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

func (r *OrderLineRepository) List(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	base, err := r.lines(orderID)
	if err != nil {
		return nil, err
	}
	docs, err := base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("position", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	lines := make([]domain.OrderLine, 0, len(docs))
	for _, doc := range docs {
		lines = append(lines, domain.OrderLine{
			OrderID:   strings.TrimSpace(orderID),
			Position:  doc.Data.Position,
			ProductID: doc.Data.ProductID,
			Name:      doc.Data.Name,
			Quantity:  doc.Data.Quantity,
			UnitPrice: doc.Data.UnitPrice,
		})
	}
	return lines, nil
}

func lineDocumentID(position int) string {
	return fmt.Sprintf("%04d", position)
}

type orderDocument struct {
	UserID          string                 `firestore:"userId,omitempty"`
	Guest           *guestDocument         `firestore:"guest,omitempty"`
	ShippingAddress string                 `firestore:"shippingAddress"`
	PaymentMethod   string                 `firestore:"paymentMethod"`
	PaymentStatus   string                 `firestore:"paymentStatus"`
	Status          string                 `firestore:"status"`
	TotalAmount     int64                  `firestore:"totalAmount"`
	Pricing         pricingDocument        `firestore:"pricing"`
	IdempotencyKey  string                 `firestore:"idempotencyKey,omitempty"`
	StatusHistory   []statusChangeDocument `firestore:"statusHistory,omitempty"`
	CreatedAt       time.Time              `firestore:"createdAt"`
	UpdatedAt       time.Time              `firestore:"updatedAt"`
}

type guestDocument struct {
	Name  string `firestore:"name"`
	Email string `firestore:"email"`
	Phone string `firestore:"phone"`
}

type pricingDocument struct {
	Currency   string `firestore:"currency"`
	Subtotal   int64  `firestore:"subtotal"`
	Tax        int64  `firestore:"tax"`
	Shipping   int64  `firestore:"shipping"`
	Surcharge  int64  `firestore:"surcharge"`
	GrandTotal int64  `firestore:"grandTotal"`
}

type statusChangeDocument struct {
	From      string    `firestore:"from"`
	To        string    `firestore:"to"`
	ActorID   string    `firestore:"actorId,omitempty"`
	Reason    string    `firestore:"reason,omitempty"`
	ChangedAt time.Time `firestore:"changedAt"`
}

type orderLineDocument struct {
	Position  int    `firestore:"position"`
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	Quantity  int    `firestore:"quantity"`
	UnitPrice int64  `firestore:"unitPrice"`
}

func newOrderDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		UserID:          strings.TrimSpace(order.UserID),
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		Status:          string(order.Status),
		TotalAmount:     order.TotalAmount,
		Pricing: pricingDocument{
			Currency:   order.Pricing.Currency,
			Subtotal:   order.Pricing.Subtotal,
			Tax:        order.Pricing.Tax,
			Shipping:   order.Pricing.Shipping,
			Surcharge:  order.Pricing.Surcharge,
			GrandTotal: order.Pricing.GrandTotal,
		},
		IdempotencyKey: order.IdempotencyKey,
		CreatedAt:      order.CreatedAt.UTC(),
		UpdatedAt:      order.UpdatedAt.UTC(),
	}
	if order.Guest != nil {
		doc.Guest = &guestDocument{Name: order.Guest.Name, Email: order.Guest.Email, Phone: order.Guest.Phone}
	}
	for _, change := range order.StatusHistory {
		doc.StatusHistory = append(doc.StatusHistory, statusChangeDocument{
			From:      string(change.From),
			To:        string(change.To),
			ActorID:   change.ActorID,
			Reason:    change.Reason,
			ChangedAt: change.ChangedAt.UTC(),
		})
	}
	return doc
}

func (d orderDocument) toDomain(id string) domain.Order {
	order := domain.Order{
		ID:              id,
		UserID:          d.UserID,
		ShippingAddress: d.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(d.PaymentMethod),
		PaymentStatus:   domain.PaymentStatus(d.PaymentStatus),
		Status:          domain.OrderStatus(d.Status),
		TotalAmount:     d.TotalAmount,
		Pricing: domain.PricingBreakdown{
			Currency:      d.Pricing.Currency,
			Subtotal:      d.Pricing.Subtotal,
			Tax:           d.Pricing.Tax,
			Shipping:      d.Pricing.Shipping,
			Surcharge:     d.Pricing.Surcharge,
			GrandTotal:    d.Pricing.GrandTotal,
			PaymentMethod: domain.PaymentMethod(d.PaymentMethod),
		},
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
	if d.Guest != nil {
		order.Guest = &domain.GuestContact{Name: d.Guest.Name, Email: d.Guest.Email, Phone: d.Guest.Phone}
	}
	for _, change := range d.StatusHistory {
		order.StatusHistory = append(order.StatusHistory, domain.OrderStatusChange{
			From:      domain.OrderStatus(change.From),
			To:        domain.OrderStatus(change.To),
			ActorID:   change.ActorID,
			Reason:    change.Reason,
			ChangedAt: change.ChangedAt.UTC(),
		})
	}
	return order
}

var (
	_ repositories.OrderRepository     = (*OrderRepository)(nil)
	_ repositories.OrderLineRepository = (*OrderLineRepository)(nil)
)
