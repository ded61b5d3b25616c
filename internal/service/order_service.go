package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/queue"
	"github.com/iliyamo/storefront-backend/internal/repository"
)

// OrderService runs the buy / cancel / status workflow.
type OrderService struct {
	products ProductStore
	orders   OrderStore
	events   EventPublisher
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewOrderService(products ProductStore, orders OrderStore, events EventPublisher, log logrus.FieldLogger) *OrderService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &OrderService{products: products, orders: orders, events: events, log: log, now: time.Now}
}

// BuyInput is a cart checkout request.
type BuyInput struct {
	Items           []model.LineRequest `json:"items"`
	ShippingAddress string              `json:"shipping_address"`
}

// reserved is a decrement already applied during one Buy call.
type reserved struct {
	productID string
	quantity  int
}

// Buy places an order for every line or for none.  Each line's stock is
// taken with a conditional decrement; if any decrement or the final
// insert fails, every decrement already applied is given back before the
// error is returned.
func (s *OrderService) Buy(ctx context.Context, account model.Account, in BuyInput) (model.Order, error) {
	address := strings.TrimSpace(in.ShippingAddress)
	if len(in.Items) == 0 {
		return model.Order{}, fail(ErrInvalidRequest, "order must contain at least one item")
	}
	if address == "" {
		return model.Order{}, fail(ErrInvalidRequest, "shipping_address is required")
	}
	wanted := make(map[string]int, len(in.Items))
	for i, line := range in.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return model.Order{}, fail(ErrInvalidRequest, "item %d: product_id is required", i)
		}
		if line.Quantity <= 0 {
			return model.Order{}, fail(ErrInvalidRequest, "item %d: quantity must be positive", i)
		}
		wanted[line.ProductID] += line.Quantity
	}

	// Stage: every product must exist and cover the cart's total demand
	// for it before anything is touched.
	catalog := make(map[string]model.Product, len(wanted))
	for _, line := range in.Items {
		if _, seen := catalog[line.ProductID]; seen {
			continue
		}
		p, err := s.products.GetByID(ctx, line.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return model.Order{}, fail(ErrNotFound, "product %s not found", line.ProductID)
		}
		if err != nil {
			return model.Order{}, err
		}
		if p.Quantity < wanted[p.ID] {
			return model.Order{}, fail(ErrInsufficientStock, "insufficient stock for product %s (%s)", p.ID, p.Name)
		}
		catalog[p.ID] = p
	}

	var (
		taken []reserved
		items = make([]model.OrderItem, 0, len(in.Items))
		total = decimal.Zero
	)
	for _, line := range in.Items {
		p := catalog[line.ProductID]
		ok, err := s.products.DecrementStock(ctx, p.ID, line.Quantity)
		if err == nil && !ok {
			err = fail(ErrInsufficientStock, "insufficient stock for product %s (%s)", p.ID, p.Name)
		}
		if err != nil {
			s.release(ctx, taken)
			return model.Order{}, err
		}
		taken = append(taken, reserved{productID: p.ID, quantity: line.Quantity})
		item := model.OrderItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: line.Quantity}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}

	now := s.now().UTC()
	o := model.Order{
		ID:              uuid.NewString(),
		AccountID:       account.ID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: address,
		Status:          model.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orders.Create(ctx, &o); err != nil {
		s.release(ctx, taken)
		return model.Order{}, err
	}
	s.log.WithFields(logrus.Fields{
		"order_id":   o.ID,
		"account_id": o.AccountID,
		"total":      o.TotalAmount.StringFixed(2),
	}).Info("order placed")
	s.publish(ctx, queue.OrderPlaced, o)
	return o, nil
}

// release gives back stock taken by a failed Buy.  It runs even when the
// request context has been cancelled.
func (s *OrderService) release(ctx context.Context, taken []reserved) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range taken {
		if _, err := s.products.IncrementStock(ctx, r.productID, r.quantity); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"product_id": r.productID,
				"quantity":   r.quantity,
			}).Error("stock rollback failed")
		}
	}
}

// Cancel moves the caller's pending order to cancelled and restores its
// stock.  Orders owned by someone else are reported as missing.
func (s *OrderService) Cancel(ctx context.Context, account model.Account, orderID string) (model.Order, error) {
	o, err := s.GetMine(ctx, account, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.Status != model.OrderPending {
		return model.Order{}, fail(ErrInvalidTransition, "order %s is %s and cannot be cancelled", o.ID, o.Status)
	}
	ok, err := s.orders.TransitionStatus(ctx, o.ID, model.OrderPending, model.OrderCancelled)
	if err != nil {
		return model.Order{}, err
	}
	if !ok {
		// lost a race with another cancel or an admin status change
		return model.Order{}, fail(ErrInvalidTransition, "order %s is no longer pending", o.ID)
	}
	o.Status = model.OrderCancelled
	o.UpdatedAt = s.now().UTC()

	var errs []error
	restoreCtx := context.WithoutCancel(ctx)
	for _, it := range o.Items {
		found, err := s.products.IncrementStock(restoreCtx, it.ProductID, it.Quantity)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"order_id":   o.ID,
				"product_id": it.ProductID,
				"quantity":   it.Quantity,
			}).Error("stock restore failed")
			errs = append(errs, err)
			continue
		}
		if !found {
			s.log.WithFields(logrus.Fields{
				"order_id":   o.ID,
				"product_id": it.ProductID,
				"quantity":   it.Quantity,
			}).Warn("product deleted, stock not restored")
		}
	}
	if err := errors.Join(errs...); err != nil {
		return model.Order{}, err
	}
	s.log.WithFields(logrus.Fields{"order_id": o.ID, "account_id": o.AccountID}).Info("order cancelled")
	s.publish(ctx, queue.OrderCancelled, o)
	return o, nil
}

// SetStatus overwrites an order's status.  It is an operator override:
// no transition rules apply and stock is not touched.
func (s *OrderService) SetStatus(ctx context.Context, orderID string, status model.OrderStatus) (model.Order, error) {
	if !status.Valid() {
		return model.Order{}, fail(ErrInvalidRequest, "unknown order status %q", status)
	}
	err := s.orders.UpdateStatus(ctx, orderID, status)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Order{}, fail(ErrNotFound, "order %s not found", orderID)
	}
	if err != nil {
		return model.Order{}, err
	}
	o, err := s.get(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	s.log.WithFields(logrus.Fields{"order_id": o.ID, "status": status}).Info("order status set")
	s.publish(ctx, queue.OrderStatusChanged, o)
	return o, nil
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, account model.Account) ([]model.Order, error) {
	return s.orders.ListByAccount(ctx, account.ID)
}

// GetMine returns one of the caller's orders.
func (s *OrderService) GetMine(ctx context.Context, account model.Account, orderID string) (model.Order, error) {
	o, err := s.get(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.AccountID != account.ID {
		return model.Order{}, fail(ErrNotFound, "order %s not found", orderID)
	}
	return o, nil
}

// ListAll returns every order, optionally only those in one status.
func (s *OrderService) ListAll(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fail(ErrInvalidRequest, "unknown order status %q", status)
	}
	return s.orders.List(ctx, status)
}

func (s *OrderService) get(ctx context.Context, orderID string) (model.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Order{}, fail(ErrNotFound, "order %s not found", orderID)
	}
	return o, err
}

// publish forwards the event.  A broker failure is logged and never
// fails the request that caused it.
func (s *OrderService) publish(ctx context.Context, t queue.EventType, o model.Order) {
	if err := s.events.Publish(context.WithoutCancel(ctx), queue.NewOrderEvent(t, o)); err != nil {
		s.log.WithError(err).WithField("order_id", o.ID).Warn("order event not published")
	}
}
