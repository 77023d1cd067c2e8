package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/platform/events"
	"github.com/aromelle/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput signals a malformed order command.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order does not exist or is not visible to the caller.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidTransition indicates the shipping status cannot move to the target.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderNotPaid indicates fulfilment cannot start before payment succeeds.
	ErrOrderNotPaid = errors.New("order: not paid")
)

// shippingRank orders the fulfilment states; transitions only move forward.
var shippingRank = map[domain.ShippingStatus]int{
	domain.ShippingPending:   0,
	domain.ShippingShipped:   1,
	domain.ShippingTransit:   2,
	domain.ShippingDelivered: 3,
}

// OrderServiceDeps bundles the collaborators for the order service.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Events OrderEventPublisher
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders repositories.OrderRepository
	events OrderEventPublisher
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewOrderService wires an OrderService over the order repository.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders: deps.Orders,
		events: deps.Events,
		clock:  func() time.Time { return clock().UTC() },
		logger: logger,
	}, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	return s.orders.List(ctx, filter)
}

func (s *orderService) GetOrder(ctx context.Context, query OrderQuery) (Order, error) {
	orderID := strings.TrimSpace(query.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}

	if userID := strings.TrimSpace(query.UserID); userID != "" && order.UserID != userID {
		// Ownership failures are indistinguishable from absence.
		return Order{}, ErrOrderNotFound
	}
	return order, nil
}

// BatchTransitionStatus applies the target shipping status to each order in
// turn. The batch is not atomic: each order reports its own outcome, and a
// failure never rolls back earlier successes.
func (s *orderService) BatchTransitionStatus(ctx context.Context, cmd BatchTransitionCommand) (BatchTransitionResult, error) {
	if len(cmd.OrderIDs) == 0 {
		return BatchTransitionResult{}, fmt.Errorf("%w: at least one order id is required", ErrOrderInvalidInput)
	}
	if _, ok := shippingRank[cmd.Target]; !ok {
		return BatchTransitionResult{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.Target)
	}

	result := BatchTransitionResult{Results: make([]OrderTransition, 0, len(cmd.OrderIDs))}
	for _, orderID := range cmd.OrderIDs {
		transition := s.transitionOne(ctx, strings.TrimSpace(orderID), cmd.Target, cmd.ActorID)
		result.Results = append(result.Results, transition)
	}
	return result, nil
}

func (s *orderService) transitionOne(ctx context.Context, orderID string, target domain.ShippingStatus, actorID string) OrderTransition {
	transition := OrderTransition{OrderID: orderID, To: target}
	if orderID == "" {
		transition.Err = fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
		return transition
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			transition.Err = ErrOrderNotFound
		} else {
			transition.Err = err
		}
		return transition
	}
	transition.From = order.ShippingStatus

	if order.PaymentStatus != domain.PaymentSucceeded {
		transition.Err = ErrOrderNotPaid
		return transition
	}
	if _, ok := shippingRank[order.ShippingStatus]; !ok {
		// Cancelled orders sit outside the forward fulfilment chain.
		transition.Err = fmt.Errorf("%w: %s -> %s", ErrOrderInvalidTransition, order.ShippingStatus, target)
		return transition
	}
	if shippingRank[target] <= shippingRank[order.ShippingStatus] {
		transition.Err = fmt.Errorf("%w: %s -> %s", ErrOrderInvalidTransition, order.ShippingStatus, target)
		return transition
	}

	now := s.clock()
	order.ShippingStatus = target
	if order.StatusTimestamps == nil {
		order.StatusTimestamps = make(map[domain.ShippingStatus]time.Time)
	}
	order.StatusTimestamps[target] = now
	order.UpdatedAt = now

	if err := s.orders.Update(ctx, order); err != nil {
		transition.Err = err
		return transition
	}

	s.logger(ctx, "order.status.changed", map[string]any{
		"orderId": order.ID,
		"from":    string(transition.From),
		"to":      string(target),
		"actorId": actorID,
	})
	s.publishStatusChange(ctx, order)
	return transition
}

func (s *orderService) publishStatusChange(ctx context.Context, order domain.Order) {
	if s.events == nil {
		return
	}
	err := s.events.PublishOrderEvent(ctx, events.OrderEvent{
		Type:           events.OrderEventStatusChanged,
		OrderID:        order.ID,
		OrderNumber:    order.Number,
		UserID:         order.UserID,
		PaymentStatus:  string(order.PaymentStatus),
		ShippingStatus: string(order.ShippingStatus),
		TotalAmount:    order.Totals.Total,
		Currency:       order.Totals.Currency,
		OccurredAt:     s.clock(),
	})
	if err != nil {
		s.logger(ctx, "order.event.publish_failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
	}
}
