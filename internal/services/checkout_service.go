package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/text/width"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/idempotency"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

const (
	orderIDPrefix          = "ord_"
	defaultCountry         = "India"
	maxIdempotencyKeyLen   = 255
	checkoutMeterNamespace = "github.com/naga-sai1/inv-ecommerce/internal/services"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	upiPattern   = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// CheckoutServiceDeps wires the collaborators of the order assembler. Profiles, Inventory,
// Idempotency, and Events are optional.
type CheckoutServiceDeps struct {
	Cart           CartService
	Pricing        PricingCalculator
	Orders         repositories.OrderRepository
	OrderLines     repositories.OrderLineRepository
	Profiles       repositories.ProfileRepository
	Inventory      InventoryReserver
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
	Events         OrderEventPublisher
	Meter          metric.Meter
	Clock          func() time.Time
	Logger         Logger
	IDGenerator    func() string
}

type checkoutService struct {
	cart      CartService
	pricing   PricingCalculator
	orders    repositories.OrderRepository
	lines     repositories.OrderLineRepository
	profiles  repositories.ProfileRepository
	inventory InventoryReserver
	idem      idempotency.Store
	idemTTL   time.Duration
	events    OrderEventPublisher
	outcomes  metric.Int64Counter
	sanitizer *bluemonday.Policy
	now       func() time.Time
	newID     func() string
	logger    Logger
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	switch {
	case deps.Cart == nil:
		return nil, errors.New("checkout service: cart service is required")
	case deps.Pricing == nil:
		return nil, errors.New("checkout service: pricing calculator is required")
	case deps.Orders == nil:
		return nil, errors.New("checkout service: order repository is required")
	case deps.OrderLines == nil:
		return nil, errors.New("checkout service: order line repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	meter := deps.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(checkoutMeterNamespace)
	}
	outcomes, err := meter.Int64Counter(
		"checkout.orders",
		metric.WithDescription("Count of checkout attempts by outcome"),
	)
	if err != nil {
		logger(context.Background(), "checkout.metric.register_failed", map[string]any{"error": err.Error()})
	}

	return &checkoutService{
		cart:      deps.Cart,
		pricing:   deps.Pricing,
		orders:    deps.Orders,
		lines:     deps.OrderLines,
		profiles:  deps.Profiles,
		inventory: deps.Inventory,
		idem:      deps.Idempotency,
		idemTTL:   ttl,
		events:    deps.Events,
		outcomes:  outcomes,
		sanitizer: bluemonday.StrictPolicy(),
		now:       func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// PlaceOrder turns the shopper's cart into an order. When an idempotency store is configured,
// the key is reserved before any other work and released again if the attempt fails.
func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error) {
	scope, err := idempotencyScope(cmd.Shopper)
	if err != nil {
		s.recordOutcome(ctx, err)
		return PlaceOrderResult{}, err
	}

	var (
		key         idempotency.Key
		fingerprint string
	)
	if s.idem != nil {
		key = idempotency.Key{Scope: scope, Value: strings.TrimSpace(cmd.IdempotencyKey)}
		fingerprint = checkoutFingerprint(cmd)
		if err := checkIdempotencyKey(key.Value); err != nil {
			if s.cartIsEmpty(ctx, cmd.Shopper) {
				err = ErrEmptyCart
			}
			s.recordOutcome(ctx, err)
			return PlaceOrderResult{}, err
		}
		if err := s.reserveKey(ctx, key, fingerprint); err != nil {
			s.recordOutcome(ctx, err)
			return PlaceOrderResult{}, err
		}
	}

	result, err := s.placeOrder(ctx, cmd)
	if err != nil {
		if s.idem != nil {
			if releaseErr := s.idem.Release(ctx, key, fingerprint); releaseErr != nil {
				s.logger(ctx, "checkout.idempotency.release_failed", map[string]any{
					"scope": scope,
					"error": releaseErr.Error(),
				})
			}
		}
		s.recordOutcome(ctx, err)
		return PlaceOrderResult{}, err
	}

	if s.idem != nil {
		if err := s.idem.Complete(ctx, key, fingerprint, result.OrderID, s.now(), s.idemTTL); err != nil {
			s.logger(ctx, "checkout.idempotency.complete_failed", map[string]any{
				"orderId": result.OrderID,
				"error":   err.Error(),
			})
		}
	}
	s.recordOutcome(ctx, nil)
	return result, nil
}

func checkIdempotencyKey(value string) error {
	if value == "" {
		return validationError("idempotencyKey", "is required")
	}
	if len(value) > maxIdempotencyKeyLen {
		return validationError("idempotencyKey", "is too long")
	}
	return nil
}

// cartIsEmpty reports an empty cart ahead of key errors. Lookup failures count as non-empty.
func (s *checkoutService) cartIsEmpty(ctx context.Context, shopper Shopper) bool {
	view, err := s.cart.GetCart(ctx, shopper)
	return err == nil && len(view.Lines) == 0
}

func (s *checkoutService) reserveKey(ctx context.Context, key idempotency.Key, fingerprint string) error {
	reservation, err := s.idem.Reserve(ctx, key, fingerprint, s.now(), s.idemTTL)
	switch {
	case errors.Is(err, idempotency.ErrFingerprintMismatch):
		return ErrIdempotencyKeyReused
	case err != nil:
		return fmt.Errorf("%w: idempotency: %v", ErrUnavailable, err)
	}
	switch reservation.State {
	case idempotency.ReservationStateCompleted:
		return &DuplicateOrderError{OrderID: reservation.Record.ResourceID}
	case idempotency.ReservationStatePending:
		return ErrCheckoutInProgress
	}
	return nil
}

func (s *checkoutService) placeOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error) {
	view, err := s.cart.GetCart(ctx, cmd.Shopper)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	if len(view.Lines) == 0 {
		return PlaceOrderResult{}, ErrEmptyCart
	}
	for _, line := range view.Lines {
		if line.Quantity < 1 || line.Quantity > domain.MaxLineQuantity {
			return PlaceOrderResult{}, validationError("quantity", fmt.Sprintf("of %s is outside 1..%d", line.ProductID, domain.MaxLineQuantity))
		}
		if line.Product != nil && line.Product.UnitPrice > domain.MaxUnitPrice {
			return PlaceOrderResult{}, validationError("cart", fmt.Sprintf("price of %s exceeds the catalog limit", line.ProductID))
		}
	}

	shipping, err := s.normaliseShipping(cmd.Shipping)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	if err := validatePayment(cmd.PaymentMethod, cmd.Payment); err != nil {
		return PlaceOrderResult{}, err
	}

	priced := view.PricedLines()
	if len(priced) != len(view.Lines) {
		for _, line := range view.Lines {
			if line.Unavailable {
				return PlaceOrderResult{}, validationError("cart", fmt.Sprintf("contains unavailable product %s", line.ProductID))
			}
		}
	}
	breakdown := s.pricing.ComputeTotals(priced, cmd.PaymentMethod)

	now := s.now()
	order := Order{
		ID:              ensureOrderID(s.newID()),
		UserID:          strings.TrimSpace(cmd.Shopper.UserID),
		ShippingAddress: formatShippingAddress(shipping),
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   initialPaymentStatus(cmd.PaymentMethod),
		Status:          domain.OrderStatusProcessing,
		TotalAmount:     breakdown.GrandTotal,
		Pricing:         breakdown,
		IdempotencyKey:  strings.TrimSpace(cmd.IdempotencyKey),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.UserID == "" {
		order.Guest = &domain.GuestContact{Name: shipping.FullName, Email: shipping.Email, Phone: shipping.Phone}
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return PlaceOrderResult{}, mapRepositoryError(err, nil)
	}

	if s.inventory != nil {
		if err := s.inventory.Reserve(ctx, order.ID, priced); err != nil {
			if cleanupErr := s.orders.Delete(ctx, order.ID); cleanupErr != nil {
				s.logger(ctx, "checkout.order.cleanup_failed", map[string]any{
					"orderId": order.ID,
					"error":   cleanupErr.Error(),
				})
			}
			return PlaceOrderResult{}, err
		}
	}

	orderLines := buildOrderLines(order.ID, view)
	if err := s.lines.InsertAll(ctx, order.ID, orderLines); err != nil {
		return PlaceOrderResult{}, s.compensateLines(ctx, order.ID, priced, err)
	}
	order.Lines = orderLines

	s.logger(ctx, "checkout.order.placed", map[string]any{
		"orderId":       order.ID,
		"userId":        order.UserID,
		"guest":         order.Guest != nil,
		"lines":         len(orderLines),
		"paymentMethod": string(order.PaymentMethod),
		"total":         order.TotalAmount,
	})

	s.afterPlacement(ctx, cmd.Shopper, shipping, order)

	return PlaceOrderResult{OrderID: order.ID, Breakdown: breakdown, Order: order}, nil
}

// compensateLines removes the header of an order whose lines could not be written and returns
// any reserved stock.
func (s *checkoutService) compensateLines(ctx context.Context, orderID string, priced []PricedLine, cause error) error {
	s.logger(ctx, "checkout.order_lines.insert_failed", map[string]any{
		"orderId": orderID,
		"error":   cause.Error(),
	})
	itemsErr := &OrderItemsCreationError{OrderID: orderID, Err: cause}
	if err := s.orders.Delete(ctx, orderID); err != nil && !isRepoNotFound(err) {
		itemsErr.Cleanup = err
		s.logger(ctx, "checkout.order.cleanup_failed", map[string]any{
			"orderId": orderID,
			"error":   err.Error(),
		})
	}
	if s.inventory != nil {
		if err := s.inventory.Release(ctx, orderID, priced); err != nil {
			s.logger(ctx, "checkout.inventory.release_failed", map[string]any{
				"orderId": orderID,
				"error":   err.Error(),
			})
		}
	}
	return itemsErr
}

// afterPlacement runs the best-effort follow-ups of a placed order. Failures are logged only.
func (s *checkoutService) afterPlacement(ctx context.Context, shopper Shopper, shipping ShippingInfo, order Order) {
	if err := s.cart.Clear(ctx, shopper); err != nil {
		s.logger(ctx, "checkout.cart.clear_failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
	}

	if s.profiles != nil && order.UserID != "" {
		profile := Profile{
			UserID:     order.UserID,
			FullName:   shipping.FullName,
			Email:      shipping.Email,
			Phone:      shipping.Phone,
			Address:    shipping.Address,
			City:       shipping.City,
			PostalCode: shipping.PostalCode,
			Country:    shipping.Country,
			UpdatedAt:  order.CreatedAt,
		}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			s.logger(ctx, "checkout.profile.upsert_failed", map[string]any{
				"orderId": order.ID,
				"userId":  order.UserID,
				"error":   err.Error(),
			})
		}
	}

	publishOrderEvent(ctx, s.events, s.logger, OrderEvent{
		Type:          OrderEventPlaced,
		OrderID:       order.ID,
		UserID:        order.UserID,
		CurrentStatus: string(order.Status),
		TotalAmount:   order.TotalAmount,
		Currency:      order.Pricing.Currency,
		OccurredAt:    order.CreatedAt,
	})
}

func (s *checkoutService) recordOutcome(ctx context.Context, err error) {
	if s.outcomes == nil {
		return
	}
	s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", checkoutOutcome(err))))
}

func checkoutOutcome(err error) string {
	switch {
	case err == nil:
		return "placed"
	case errors.Is(err, ErrDuplicateOrder):
		return "duplicate"
	case errors.Is(err, ErrCheckoutInProgress):
		return "in_progress"
	case errors.Is(err, ErrIdempotencyKeyReused):
		return "key_reused"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrAuthenticationRequired):
		return "unauthenticated"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrOrderItemsCreation):
		return "order_items_failed"
	default:
		return "error"
	}
}

// normaliseShipping strips markup, trims, and validates the delivery contact. The first
// failing field is reported.
func (s *checkoutService) normaliseShipping(in ShippingInfo) (ShippingInfo, error) {
	out := ShippingInfo{
		FullName:   s.clean(in.FullName),
		Email:      s.clean(in.Email),
		Phone:      s.clean(in.Phone),
		Address:    s.clean(in.Address),
		City:       s.clean(in.City),
		PostalCode: s.clean(in.PostalCode),
		Country:    s.clean(in.Country),
	}

	required := []struct {
		field string
		value string
	}{
		{"fullName", out.FullName},
		{"email", out.Email},
		{"phone", out.Phone},
		{"address", out.Address},
		{"city", out.City},
	}
	for _, r := range required {
		if r.value == "" {
			return ShippingInfo{}, validationError(r.field, "is required")
		}
	}

	if !emailPattern.MatchString(out.Email) {
		return ShippingInfo{}, validationError("email", "must be a valid email address")
	}
	phone, ok := normalisePhone(out.Phone)
	if !ok {
		return ShippingInfo{}, validationError("phone", "must be a valid 10-digit mobile number")
	}
	out.Phone = phone
	if out.Country == "" {
		out.Country = defaultCountry
	}
	return out, nil
}

func (s *checkoutService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

// normalisePhone narrows full-width digits, drops separators and country prefixes, and checks
// the remaining ten digits form an Indian mobile number.
func normalisePhone(raw string) (string, bool) {
	digits := nonDigits.ReplaceAllString(width.Narrow.String(raw), "")
	if len(digits) < 10 {
		return "", false
	}
	digits = digits[len(digits)-10:]
	return digits, phonePattern.MatchString(digits)
}

func validatePayment(method PaymentMethod, details PaymentDetails) error {
	switch method {
	case domain.PaymentMethodCard:
		required := []struct {
			field string
			value string
		}{
			{"cardNumber", details.CardNumber},
			{"expiry", details.Expiry},
			{"cvv", details.CVV},
			{"nameOnCard", details.NameOnCard},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				return validationError(r.field, "is required")
			}
		}
	case domain.PaymentMethodUPI:
		upi := strings.TrimSpace(details.UPIID)
		if upi == "" {
			return validationError("upiId", "is required")
		}
		if !upiPattern.MatchString(upi) {
			return validationError("upiId", "must be a valid UPI id")
		}
	case domain.PaymentMethodNetBanking:
		if strings.TrimSpace(details.BankName) == "" {
			return validationError("bankName", "is required")
		}
	case domain.PaymentMethodCashOnDelivery:
	default:
		return validationError("paymentMethod", "is not supported")
	}
	return nil
}

func initialPaymentStatus(method PaymentMethod) domain.PaymentStatus {
	if method == domain.PaymentMethodCashOnDelivery {
		return domain.PaymentStatusPending
	}
	return domain.PaymentStatusCompleted
}

func formatShippingAddress(info ShippingInfo) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{info.Address, info.City, info.PostalCode, info.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func buildOrderLines(orderID string, view CartView) []OrderLine {
	lines := make([]OrderLine, 0, len(view.Lines))
	for _, line := range view.Lines {
		if line.Product == nil {
			continue
		}
		lines = append(lines, OrderLine{
			OrderID:   orderID,
			Position:  len(lines),
			ProductID: line.ProductID,
			Name:      line.Product.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.UnitPrice,
		})
	}
	return lines
}

func ensureOrderID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, orderIDPrefix) {
		return id
	}
	return orderIDPrefix + id
}

func idempotencyScope(shopper Shopper) (string, error) {
	if uid := strings.TrimSpace(shopper.UserID); uid != "" {
		return "user:" + uid, nil
	}
	if gid := strings.TrimSpace(shopper.GuestID); gid != "" {
		return guestCartPrefix + gid, nil
	}
	return "", ErrAuthenticationRequired
}

// checkoutFingerprint covers the request body. The cart is excluded since a completed checkout
// empties it.
func checkoutFingerprint(cmd PlaceOrderCommand) string {
	sh := cmd.Shipping
	return idempotency.Fingerprint(
		string(cmd.PaymentMethod),
		strings.TrimSpace(sh.FullName),
		strings.TrimSpace(sh.Email),
		strings.TrimSpace(sh.Phone),
		strings.TrimSpace(sh.Address),
		strings.TrimSpace(sh.City),
		strings.TrimSpace(sh.PostalCode),
		strings.TrimSpace(sh.Country),
	)
}
