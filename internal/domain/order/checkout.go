package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/gsmmotor/storefront/internal/domain/cart"
	"github.com/gsmmotor/storefront/internal/domain/user"
)

// Checkout precondition errors.
var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrIncompleteAddress   = errors.New("shipping address is incomplete")
	ErrInvalidCourier      = errors.New("courier is not supported")
	ErrMissingShippingCost = errors.New("shipping cost is required for courier delivery")
	ErrCheckoutInProgress  = errors.New("another checkout is already in progress")
)

// allowedCouriers is the carrier set the shop ships with.
var allowedCouriers = map[string]bool{
	"jne": true,
	"jnt": true,
}

// CourierAllowed reports whether the given carrier code can be selected at
// checkout.
func CourierAllowed(code string) bool {
	return allowedCouriers[code]
}

// Guard serializes checkout per user so two concurrent submissions cannot
// both consume the same cart. Acquire returns a release function on success
// and ErrCheckoutInProgress when the user already holds the guard.
type Guard interface {
	Acquire(ctx context.Context, userID int64) (release func(), err error)
}

// NopGuard is a Guard that always admits. Used when no shared lock backend is
// configured; the database transaction remains the authoritative barrier.
type NopGuard struct{}

func (NopGuard) Acquire(context.Context, int64) (func(), error) {
	return func() {}, nil
}

// CheckoutRequest is the input for placing an order.
type CheckoutRequest struct {
	ShippingMethod ShippingMethod
	Courier        string
	CourierService string
	// ShippingCost is the externally quoted rate the customer selected.
	// Only consulted for courier delivery; pickup and ojol ship at zero.
	ShippingCost decimal.Decimal
	Notes        string
}

// CheckoutService turns a cart into an order.
type CheckoutService struct {
	carts  cart.Repository
	orders Repository
	guard  Guard
	now    func() time.Time
}

// NewCheckoutService creates a CheckoutService. A nil guard is replaced with
// NopGuard.
func NewCheckoutService(carts cart.Repository, orders Repository, guard Guard) *CheckoutService {
	if guard == nil {
		guard = NopGuard{}
	}
	return &CheckoutService{
		carts:  carts,
		orders: orders,
		guard:  guard,
		now:    time.Now,
	}
}

// maxNumberAttempts bounds the regenerate-on-collision loop for order numbers.
const maxNumberAttempts = 5

// PlaceOrder validates the checkout preconditions, recomputes the subtotal
// from the current cart at tier prices, and persists the order atomically:
// order row, items with price snapshots, stock decrements, and cart deletion
// commit together or not at all.
//
// The client-supplied totals are never trusted; only the chosen shipping cost
// is taken from the request, because courier rates are quoted externally.
func (s *CheckoutService) PlaceOrder(ctx context.Context, u *user.User, req CheckoutRequest) (*Order, error) {
	if !req.ShippingMethod.Valid() {
		return nil, errors.Errorf("unknown shipping method %q", req.ShippingMethod)
	}

	shippingCost := decimal.Zero
	if req.ShippingMethod == ShippingCourier {
		if !CourierAllowed(req.Courier) {
			return nil, ErrInvalidCourier
		}
		if !u.CompleteAddress() {
			return nil, ErrIncompleteAddress
		}
		if !req.ShippingCost.IsPositive() {
			return nil, ErrMissingShippingCost
		}
		shippingCost = req.ShippingCost
	}

	release, err := s.guard.Acquire(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	lines, err := s.carts.ListLines(ctx, u.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := decimal.Zero
	items := make([]Item, len(lines))
	for i, line := range lines {
		unit := line.Product.EffectivePrice(line.Item.Quantity)
		items[i] = Item{
			ProductID:       line.Product.ID,
			ProductName:     line.Product.Name,
			Quantity:        line.Item.Quantity,
			PriceAtPurchase: unit,
		}
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(line.Item.Quantity))))
	}

	address := u.FullAddress()
	if u.Phone != "" {
		address += fmt.Sprintf(" (Telp: %s)", u.Phone)
	}

	o := &Order{
		UserID:          u.ID,
		TotalPrice:      subtotal,
		ShippingCost:    shippingCost,
		Courier:         req.Courier,
		CourierService:  req.CourierService,
		ShippingMethod:  req.ShippingMethod,
		ShippingAddress: address,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		Notes:           req.Notes,
	}

	// The random suffix can collide; regenerate on the unique-constraint
	// violation instead of failing the checkout.
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		o.OrderNumber = GenerateNumber(s.now())

		err = s.orders.CreateWithItems(ctx, o, items)
		if err == nil {
			o.Items = items
			return o, nil
		}
		if !errors.Is(err, ErrDuplicateOrderNumber) {
			return nil, errors.Wrap(err, "create order")
		}
	}
	return nil, errors.Wrap(ErrDuplicateOrderNumber, "create order")
}
