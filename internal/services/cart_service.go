package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: cart repository is required")
	errCartProductsRequired   = errors.New("cart service: product lookup is required")
	errCartPricingRequired    = errors.New("cart service: pricing calculator is required")
	errCartClockRequired      = errors.New("cart service: clock is required")

	errQuantityTooLarge = validationError("quantity", fmt.Sprintf("must not exceed %d per line", domain.MaxLineQuantity))
)

const (
	guestCartPrefix    = "guest:"
	maxGuestIDLength   = 128
	defaultAddQuantity = 1
)

// CartServiceDeps wires the cart repository, catalog, and pricing into the cart aggregator.
type CartServiceDeps struct {
	Carts          repositories.CartRepository
	Products       ProductLookup
	Pricing        PricingCalculator
	AllowGuestCart bool
	Clock          func() time.Time
	Logger         Logger
}

type cartService struct {
	carts      repositories.CartRepository
	products   ProductLookup
	pricing    PricingCalculator
	allowGuest bool
	now        func() time.Time
	logger     Logger
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	switch {
	case deps.Carts == nil:
		return nil, errCartRepositoryRequired
	case deps.Products == nil:
		return nil, errCartProductsRequired
	case deps.Pricing == nil:
		return nil, errCartPricingRequired
	case deps.Clock == nil:
		return nil, errCartClockRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &cartService{
		carts:      deps.Carts,
		products:   deps.Products,
		pricing:    deps.Pricing,
		allowGuest: deps.AllowGuestCart,
		now:        func() time.Time { return deps.Clock().UTC() },
		logger:     logger,
	}, nil
}

// AddItem increments the line for productID, creating it when absent. A zero quantity adds one unit.
func (s *cartService) AddItem(ctx context.Context, shopper Shopper, productID string, quantity int) (CartView, error) {
	key, err := s.cartKey(shopper)
	if err != nil {
		return CartView{}, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CartView{}, validationError("productId", "is required")
	}
	if quantity == 0 {
		quantity = defaultAddQuantity
	}
	if quantity < 1 {
		return CartView{}, validationError("quantity", "must be at least 1")
	}
	if quantity > domain.MaxLineQuantity {
		return CartView{}, errQuantityTooLarge
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	if !product.InStock {
		return CartView{}, validationError("productId", "is out of stock")
	}

	cart, err := s.carts.GetCart(ctx, key)
	if err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}
	now := s.now()
	line := CartLine{ProductID: productID, Quantity: quantity, AddedAt: now, UpdatedAt: now}
	if existing, ok := findCartLine(cart, productID); ok {
		if existing.Quantity > domain.MaxLineQuantity-quantity {
			return CartView{}, errQuantityTooLarge
		}
		line.Quantity += existing.Quantity
		line.AddedAt = existing.AddedAt
	}
	if err := s.carts.UpsertLine(ctx, key, line); err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}
	s.logger(ctx, "cart.item.added", map[string]any{
		"cartKey":   key,
		"productId": productID,
		"quantity":  line.Quantity,
	})
	return s.view(ctx, key)
}

// UpdateQuantity sets the line to exactly quantity. Anything below one removes the line.
func (s *cartService) UpdateQuantity(ctx context.Context, shopper Shopper, productID string, quantity int) (CartView, error) {
	if quantity < 1 {
		return s.RemoveItem(ctx, shopper, productID)
	}
	if quantity > domain.MaxLineQuantity {
		return CartView{}, errQuantityTooLarge
	}
	key, err := s.cartKey(shopper)
	if err != nil {
		return CartView{}, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CartView{}, validationError("productId", "is required")
	}

	cart, err := s.carts.GetCart(ctx, key)
	if err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}
	line, ok := findCartLine(cart, productID)
	if !ok {
		return CartView{}, fmt.Errorf("%w: %s", ErrCartLineNotFound, productID)
	}
	line.Quantity = quantity
	line.UpdatedAt = s.now()
	if err := s.carts.UpsertLine(ctx, key, line); err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}
	return s.view(ctx, key)
}

// RemoveItem deletes the line. Removing an absent line is not an error.
func (s *cartService) RemoveItem(ctx context.Context, shopper Shopper, productID string) (CartView, error) {
	key, err := s.cartKey(shopper)
	if err != nil {
		return CartView{}, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CartView{}, validationError("productId", "is required")
	}
	if err := s.carts.DeleteLine(ctx, key, productID); err != nil && !isRepoNotFound(err) {
		return CartView{}, mapRepositoryError(err, nil)
	}
	return s.view(ctx, key)
}

func (s *cartService) Clear(ctx context.Context, shopper Shopper) error {
	key, err := s.cartKey(shopper)
	if err != nil {
		return err
	}
	if err := s.carts.Clear(ctx, key); err != nil {
		return mapRepositoryError(err, nil)
	}
	return nil
}

func (s *cartService) GetCart(ctx context.Context, shopper Shopper) (CartView, error) {
	key, err := s.cartKey(shopper)
	if err != nil {
		return CartView{}, err
	}
	return s.view(ctx, key)
}

// TotalItems counts units across every line, including lines whose product is gone.
func (s *cartService) TotalItems(ctx context.Context, shopper Shopper) (int, error) {
	key, err := s.cartKey(shopper)
	if err != nil {
		return 0, err
	}
	cart, err := s.carts.GetCart(ctx, key)
	if err != nil {
		return 0, mapRepositoryError(err, nil)
	}
	total := 0
	for _, line := range cart.Lines {
		total += line.Quantity
	}
	return total, nil
}

func (s *cartService) TotalPrice(ctx context.Context, shopper Shopper) (int64, error) {
	view, err := s.GetCart(ctx, shopper)
	if err != nil {
		return 0, err
	}
	return view.TotalPrice, nil
}

// ComputeTotals prices the cart at current catalog prices for the given payment method.
func (s *cartService) ComputeTotals(ctx context.Context, shopper Shopper, method PaymentMethod) (PricingBreakdown, error) {
	if !method.Valid() {
		return PricingBreakdown{}, validationError("paymentMethod", "is not supported")
	}
	view, err := s.GetCart(ctx, shopper)
	if err != nil {
		return PricingBreakdown{}, err
	}
	return s.pricing.ComputeTotals(view.PricedLines(), method), nil
}

func (s *cartService) cartKey(shopper Shopper) (string, error) {
	return resolveCartKey(shopper, s.allowGuest)
}

// view joins the stored lines with the current catalog.
func (s *cartService) view(ctx context.Context, key string) (CartView, error) {
	cart, err := s.carts.GetCart(ctx, key)
	if err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}
	view := CartView{Key: key, Lines: make([]CartViewLine, 0, len(cart.Lines)), UpdatedAt: cart.UpdatedAt}
	for _, line := range cart.Lines {
		item := CartViewLine{ProductID: line.ProductID, Quantity: line.Quantity, AddedAt: line.AddedAt}
		product, err := s.products.GetProduct(ctx, line.ProductID)
		switch {
		case errors.Is(err, ErrNotFound):
			item.Unavailable = true
			s.logger(ctx, "cart.item.unavailable", map[string]any{
				"cartKey":   key,
				"productId": line.ProductID,
			})
		case err != nil:
			return CartView{}, err
		default:
			item.Product = &product
			item.LineTotal = int64(line.Quantity) * product.UnitPrice
		}
		view.TotalItems += item.Quantity
		view.TotalPrice += item.LineTotal
		view.Lines = append(view.Lines, item)
	}
	return view, nil
}

// PricedLines returns the lines that still resolve to a catalog product, at current prices.
func (v CartView) PricedLines() []PricedLine {
	lines := make([]PricedLine, 0, len(v.Lines))
	for _, line := range v.Lines {
		if line.Unavailable || line.Product == nil {
			continue
		}
		lines = append(lines, PricedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.UnitPrice,
		})
	}
	return lines
}

// resolveCartKey maps a shopper onto the cart key: the user id, or guest:<id> when guests are allowed.
func resolveCartKey(shopper Shopper, allowGuest bool) (string, error) {
	if uid := strings.TrimSpace(shopper.UserID); uid != "" {
		return uid, nil
	}
	gid := strings.TrimSpace(shopper.GuestID)
	if gid == "" || !allowGuest {
		return "", ErrAuthenticationRequired
	}
	if len(gid) > maxGuestIDLength || strings.ContainsAny(gid, "/ \t\r\n") {
		return "", validationError("guestId", "is invalid")
	}
	return guestCartPrefix + gid, nil
}

func findCartLine(cart Cart, productID string) (CartLine, bool) {
	for _, line := range cart.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}
