package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/payments"
	"github.com/aromelle/api/internal/platform/events"
	"github.com/aromelle/api/internal/repositories"
)

const reconcilePageSize = 100

var (
	// ErrCheckoutInvalidInput signals a malformed checkout command.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutEmptyCart indicates no selected cart lines to purchase.
	ErrCheckoutEmptyCart = errors.New("checkout: no selected items")
	// ErrCheckoutAddressNotFound indicates the shipping address does not exist for the user.
	ErrCheckoutAddressNotFound = errors.New("checkout: address not found")
	// ErrCheckoutStockUnavailable indicates a selected unit cannot cover the requested quantity.
	ErrCheckoutStockUnavailable = errors.New("checkout: stock unavailable")
	// ErrCheckoutOrderNotFound indicates no order matches the lookup.
	ErrCheckoutOrderNotFound = errors.New("checkout: order not found")
	// ErrCheckoutPaymentIncomplete indicates the provider has not reported the session as paid.
	ErrCheckoutPaymentIncomplete = errors.New("checkout: payment incomplete")
	// ErrCheckoutNotRetryable indicates the order's payment state forbids opening a new session.
	ErrCheckoutNotRetryable = errors.New("checkout: order not retryable")
	// ErrCheckoutPayLaterDisabled indicates the deferred payment flow is turned off.
	ErrCheckoutPayLaterDisabled = errors.New("checkout: pay later disabled")
	// ErrCheckoutNotCancellable indicates the order has started fulfilment or
	// carries no refundable payment.
	ErrCheckoutNotCancellable = errors.New("checkout: order not cancellable")
)

// PaymentGateway is the slice of the payment manager the checkout flow uses.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, paymentCtx payments.PaymentContext, req payments.CheckoutSessionRequest) (payments.CheckoutSession, error)
	LookupSession(ctx context.Context, paymentCtx payments.PaymentContext, req payments.SessionLookupRequest) (payments.SessionDetails, error)
	LookupPayment(ctx context.Context, paymentCtx payments.PaymentContext, req payments.LookupRequest) (payments.PaymentDetails, error)
	Refund(ctx context.Context, paymentCtx payments.PaymentContext, req payments.RefundRequest) (payments.PaymentDetails, error)
}

// CheckoutServiceDeps bundles the collaborators for the checkout service.
type CheckoutServiceDeps struct {
	Carts      repositories.CartRepository
	Orders     repositories.OrderRepository
	Addresses  repositories.AddressRepository
	Products   repositories.ProductRepository
	Inventory  repositories.InventoryRepository
	Usage      repositories.PromotionUsageRepository
	Stock      InventoryService
	Promotions PromotionService
	Counters   CounterService
	Gateway    PaymentGateway
	Events     OrderEventPublisher

	Currency         string
	SuccessURL       string
	CancelURL        string
	EnablePromotions bool
	EnablePayLater   bool

	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	carts      repositories.CartRepository
	orders     repositories.OrderRepository
	addresses  repositories.AddressRepository
	products   repositories.ProductRepository
	inventory  repositories.InventoryRepository
	usage      repositories.PromotionUsageRepository
	stock      InventoryService
	promotions PromotionService
	counters   CounterService
	gateway    PaymentGateway
	events     OrderEventPublisher

	currency         string
	successURL       string
	cancelURL        string
	enablePromotions bool
	enablePayLater   bool

	clock  func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewCheckoutService assembles the checkout orchestration service.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	switch {
	case deps.Carts == nil:
		return nil, errors.New("checkout service: cart repository is required")
	case deps.Orders == nil:
		return nil, errors.New("checkout service: order repository is required")
	case deps.Addresses == nil:
		return nil, errors.New("checkout service: address repository is required")
	case deps.Products == nil:
		return nil, errors.New("checkout service: product repository is required")
	case deps.Inventory == nil:
		return nil, errors.New("checkout service: inventory repository is required")
	case deps.Usage == nil:
		return nil, errors.New("checkout service: promotion usage repository is required")
	case deps.Stock == nil:
		return nil, errors.New("checkout service: inventory service is required")
	case deps.Promotions == nil:
		return nil, errors.New("checkout service: promotion service is required")
	case deps.Counters == nil:
		return nil, errors.New("checkout service: counter service is required")
	case deps.Gateway == nil:
		return nil, errors.New("checkout service: payment gateway is required")
	}

	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = defaultCartCurrency
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		carts:            deps.Carts,
		orders:           deps.Orders,
		addresses:        deps.Addresses,
		products:         deps.Products,
		inventory:        deps.Inventory,
		usage:            deps.Usage,
		stock:            deps.Stock,
		promotions:       deps.Promotions,
		counters:         deps.Counters,
		gateway:          deps.Gateway,
		events:           deps.Events,
		currency:         currency,
		successURL:       strings.TrimSpace(deps.SuccessURL),
		cancelURL:        strings.TrimSpace(deps.CancelURL),
		enablePromotions: deps.EnablePromotions,
		enablePayLater:   deps.EnablePayLater,
		clock:            func() time.Time { return clock().UTC() },
		newID:            idGen,
		logger:           logger,
	}, nil
}

// CreateSession builds an order from the user's selected cart lines, holds
// stock for it, and opens a hosted payment session unless the caller defers
// payment. Prices and the shipping address are snapshotted into the order;
// later catalog edits never change it.
func (s *checkoutService) CreateSession(ctx context.Context, cmd CreateCheckoutCommand) (CheckoutResult, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return CheckoutResult{}, fmt.Errorf("%w: user id is required", ErrCheckoutInvalidInput)
	}
	addressID := strings.TrimSpace(cmd.AddressID)
	if addressID == "" {
		return CheckoutResult{}, fmt.Errorf("%w: address id is required", ErrCheckoutInvalidInput)
	}
	if cmd.PayLater && !s.enablePayLater {
		return CheckoutResult{}, ErrCheckoutPayLaterDisabled
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return CheckoutResult{}, err
	}
	selected := selectedLines(cart)
	if len(selected) == 0 {
		return CheckoutResult{}, ErrCheckoutEmptyCart
	}

	addr, err := s.addresses.Get(ctx, userID, addressID)
	if err != nil {
		if isNotFound(err) {
			return CheckoutResult{}, ErrCheckoutAddressNotFound
		}
		return CheckoutResult{}, err
	}

	items, subtotal, err := s.snapshotItems(ctx, selected)
	if err != nil {
		return CheckoutResult{}, err
	}

	var promo *domain.OrderPromotion
	var discount int64
	if code := strings.TrimSpace(cmd.PromotionCode); code != "" && s.enablePromotions {
		validation, err := s.promotions.Validate(ctx, ValidatePromotionCommand{
			Code:     code,
			UserID:   userID,
			Subtotal: subtotal,
		})
		if err != nil {
			return CheckoutResult{}, err
		}
		discount = validation.Discount
		promo = &domain.OrderPromotion{
			PromotionID:        validation.Promotion.ID,
			Code:               validation.Promotion.Code,
			DiscountPercentage: validation.Promotion.DiscountPercentage,
		}
	}

	number, err := s.counters.NextOrderNumber(ctx)
	if err != nil {
		return CheckoutResult{}, err
	}

	now := s.clock()
	order := domain.Order{
		ID:             "ord_" + s.newID(),
		Number:         number,
		UserID:         userID,
		Items:          items,
		Promotion:      promo,
		PaymentStatus:  domain.PaymentPending,
		ShippingStatus: domain.ShippingPending,
		StatusTimestamps: map[domain.ShippingStatus]time.Time{
			domain.ShippingPending: now,
		},
		Address: domain.OrderAddress{
			Recipient:  addr.Recipient,
			Phone:      addr.Phone,
			Line1:      addr.Line1,
			Line2:      addr.Line2,
			District:   addr.District,
			Province:   addr.Province,
			PostalCode: addr.PostalCode,
		},
		Totals: domain.OrderTotals{
			Currency: s.currency,
			Subtotal: subtotal,
			Discount: discount,
			Total:    subtotal - discount,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	quantities := make(map[string]int, len(items))
	for _, item := range items {
		quantities[item.InventoryID] = item.Quantity
	}
	if err := s.stock.Reserve(ctx, ReserveStockCommand{OrderID: order.ID, Quantities: quantities}); err != nil {
		if errors.Is(err, ErrInventoryInsufficientStock) {
			return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutStockUnavailable, err)
		}
		return CheckoutResult{}, err
	}

	// The redemption is claimed at placement, so a second pending order
	// with the same code fails here instead of slipping past Validate.
	if promo != nil {
		_, err := s.usage.Record(ctx, domain.PromotionUsage{
			PromotionID: promo.PromotionID,
			Code:        promo.Code,
			UserID:      userID,
			OrderID:     order.ID,
			UsedAt:      now,
		})
		if err != nil {
			s.compensateHold(ctx, order.ID)
			if isConflict(err) {
				return CheckoutResult{}, ErrPromotionAlreadyUsed
			}
			return CheckoutResult{}, err
		}
	}

	result := CheckoutResult{}
	if !cmd.PayLater {
		session, err := s.openSession(ctx, order, cmd.Locale)
		if err != nil {
			s.compensateHold(ctx, order.ID)
			s.releaseUsage(ctx, order)
			return CheckoutResult{}, err
		}
		order.CheckoutSessionID = session.ID
		result.SessionID = session.ID
		result.RedirectURL = session.RedirectURL
		result.ExpiresAt = session.ExpiresAt
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		s.compensateHold(ctx, order.ID)
		s.releaseUsage(ctx, order)
		return CheckoutResult{}, err
	}
	result.Order = order

	s.logger(ctx, "checkout.session.created", map[string]any{
		"orderId":     order.ID,
		"orderNumber": order.Number,
		"userId":      userID,
		"total":       order.Totals.Total,
		"payLater":    cmd.PayLater,
	})
	s.publish(ctx, events.OrderEventPlaced, order)

	return result, nil
}

// RetryPayment opens a fresh hosted session for a pay-later or failed order.
// A failed order's stock hold was released, so it is re-acquired first.
func (s *checkoutService) RetryPayment(ctx context.Context, cmd RetryPaymentCommand) (CheckoutResult, error) {
	userID := strings.TrimSpace(cmd.UserID)
	orderID := strings.TrimSpace(cmd.OrderID)
	if userID == "" || orderID == "" {
		return CheckoutResult{}, fmt.Errorf("%w: user id and order id are required", ErrCheckoutInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return CheckoutResult{}, ErrCheckoutOrderNotFound
		}
		return CheckoutResult{}, err
	}
	if order.UserID != userID {
		return CheckoutResult{}, ErrCheckoutOrderNotFound
	}

	switch order.PaymentStatus {
	case domain.PaymentPending:
		// Hold still active from checkout.
	case domain.PaymentFailed:
		quantities := make(map[string]int, len(order.Items))
		for _, item := range order.Items {
			quantities[item.InventoryID] = item.Quantity
		}
		if err := s.stock.Reserve(ctx, ReserveStockCommand{OrderID: order.ID, Quantities: quantities}); err != nil {
			if errors.Is(err, ErrInventoryInsufficientStock) {
				return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutStockUnavailable, err)
			}
			if !errors.Is(err, ErrInventoryInvalidState) {
				return CheckoutResult{}, err
			}
		}
		// A failed order released its redemption; the retry must win it
		// back or the snapshotted discount is no longer legitimate.
		if err := s.reclaimUsage(ctx, order); err != nil {
			s.compensateHold(ctx, order.ID)
			return CheckoutResult{}, err
		}
	default:
		return CheckoutResult{}, ErrCheckoutNotRetryable
	}

	session, err := s.openSession(ctx, order, "")
	if err != nil {
		return CheckoutResult{}, err
	}

	order.CheckoutSessionID = session.ID
	order.PaymentStatus = domain.PaymentPending
	order.UpdatedAt = s.clock()
	if err := s.orders.Update(ctx, order); err != nil {
		return CheckoutResult{}, err
	}

	s.logger(ctx, "checkout.payment.retried", map[string]any{
		"orderId":   order.ID,
		"sessionId": session.ID,
	})
	return CheckoutResult{
		Order:       order,
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

// ConfirmBySession finalises the order tied to a paid session: the stock
// hold is committed, promotion usage is recorded, and the purchased lines
// leave the cart. Confirming an already-paid order is a no-op.
func (s *checkoutService) ConfirmBySession(ctx context.Context, sessionID string) (Order, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Order{}, fmt.Errorf("%w: session id is required", ErrCheckoutInvalidInput)
	}

	order, err := s.orders.FindBySessionID(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return Order{}, ErrCheckoutOrderNotFound
		}
		return Order{}, err
	}
	if order.PaymentStatus == domain.PaymentSucceeded {
		return order, nil
	}

	details, err := s.gateway.LookupSession(ctx, payments.PaymentContext{Currency: order.Totals.Currency}, payments.SessionLookupRequest{SessionID: sessionID})
	if err != nil {
		return Order{}, err
	}
	if details.Status != payments.StatusSucceeded {
		return Order{}, ErrCheckoutPaymentIncomplete
	}

	return s.finalizePaid(ctx, order)
}

// FailBySession marks the order tied to an expired or failed session as
// payment-failed and returns its stock hold. Orders that already succeeded
// are left untouched.
func (s *checkoutService) FailBySession(ctx context.Context, sessionID string) (Order, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Order{}, fmt.Errorf("%w: session id is required", ErrCheckoutInvalidInput)
	}

	order, err := s.orders.FindBySessionID(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return Order{}, ErrCheckoutOrderNotFound
		}
		return Order{}, err
	}
	if order.PaymentStatus != domain.PaymentPending {
		return order, nil
	}

	if err := s.stock.Release(ctx, order.ID); err != nil {
		if !errors.Is(err, ErrInventoryNotFound) && !errors.Is(err, ErrInventoryInvalidState) {
			return Order{}, err
		}
	}
	s.releaseUsage(ctx, order)

	order.PaymentStatus = domain.PaymentFailed
	order.UpdatedAt = s.clock()
	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, err
	}

	s.logger(ctx, "checkout.payment.failed", map[string]any{
		"orderId":   order.ID,
		"sessionId": sessionID,
	})
	s.publish(ctx, events.OrderEventPaymentFailed, order)
	return order, nil
}

// CancelOrder voids an un-shipped order. A captured payment is refunded in
// full through the provider; a pending one has its stock hold and promotion
// redemption returned instead. Cancelled goods re-enter stock through the
// admin inventory update once they are inspected, never automatically.
func (s *checkoutService) CancelOrder(ctx context.Context, cmd CancelOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrCheckoutInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return Order{}, ErrCheckoutOrderNotFound
		}
		return Order{}, err
	}
	if order.ShippingStatus != domain.ShippingPending {
		return Order{}, fmt.Errorf("%w: shipping status %s", ErrCheckoutNotCancellable, order.ShippingStatus)
	}

	switch order.PaymentStatus {
	case domain.PaymentSucceeded:
		if err := s.refundPayment(ctx, &order, cmd.Reason); err != nil {
			return Order{}, err
		}
	case domain.PaymentPending, domain.PaymentFailed:
		if err := s.stock.Release(ctx, order.ID); err != nil {
			if !errors.Is(err, ErrInventoryNotFound) && !errors.Is(err, ErrInventoryInvalidState) {
				return Order{}, err
			}
		}
		s.releaseUsage(ctx, order)
	default:
		return Order{}, fmt.Errorf("%w: payment status %s", ErrCheckoutNotCancellable, order.PaymentStatus)
	}

	now := s.clock()
	order.ShippingStatus = domain.ShippingCancelled
	if order.StatusTimestamps == nil {
		order.StatusTimestamps = make(map[domain.ShippingStatus]time.Time)
	}
	order.StatusTimestamps[domain.ShippingCancelled] = now
	order.UpdatedAt = now
	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, err
	}

	s.logger(ctx, "checkout.order.cancelled", map[string]any{
		"orderId":       order.ID,
		"actorId":       cmd.ActorID,
		"paymentStatus": string(order.PaymentStatus),
	})
	s.publish(ctx, events.OrderEventStatusChanged, order)
	return order, nil
}

// refundPayment resolves the payment intent behind the order's session and
// refunds it in full. An intent the provider already reports as refunded is
// accepted as-is so a repeated cancellation stays idempotent.
func (s *checkoutService) refundPayment(ctx context.Context, order *domain.Order, reason string) error {
	paymentCtx := payments.PaymentContext{Currency: order.Totals.Currency}
	session, err := s.gateway.LookupSession(ctx, paymentCtx, payments.SessionLookupRequest{SessionID: order.CheckoutSessionID})
	if err != nil {
		return err
	}
	if strings.TrimSpace(session.IntentID) == "" {
		return fmt.Errorf("%w: no payment intent behind session %s", ErrCheckoutNotCancellable, order.CheckoutSessionID)
	}

	details, err := s.gateway.LookupPayment(ctx, paymentCtx, payments.LookupRequest{IntentID: session.IntentID})
	if err != nil {
		return err
	}
	if details.Status != payments.StatusRefunded {
		details, err = s.gateway.Refund(ctx, paymentCtx, payments.RefundRequest{
			IntentID:       session.IntentID,
			Reason:         reason,
			IdempotencyKey: "refund_" + order.ID,
			Metadata: map[string]string{
				"order_id":     order.ID,
				"order_number": order.Number,
			},
		})
		if err != nil {
			return err
		}
	}

	order.PaymentStatus = domain.PaymentRefunded
	s.logger(ctx, "checkout.payment.refunded", map[string]any{
		"orderId":  order.ID,
		"intentId": details.IntentID,
		"amount":   order.Totals.Total,
	})
	return nil
}

// ReconcilePending sweeps orders stuck in payment-pending longer than the
// given age and settles them against the provider's session state.
func (s *checkoutService) ReconcilePending(ctx context.Context, olderThan time.Duration) (ReconcileReport, error) {
	if olderThan <= 0 {
		return ReconcileReport{}, fmt.Errorf("%w: age must be positive", ErrCheckoutInvalidInput)
	}

	report := ReconcileReport{}
	cutoff := s.clock().Add(-olderThan)
	pageToken := ""

	for {
		page, err := s.orders.List(ctx, repositories.OrderListFilter{
			PaymentStatus: []domain.PaymentStatus{domain.PaymentPending},
			CreatedBefore: &cutoff,
			Pagination:    domain.Pagination{PageSize: reconcilePageSize, PageToken: pageToken},
		})
		if err != nil {
			return report, err
		}

		for _, order := range page.Items {
			report.Scanned++
			if order.CheckoutSessionID == "" {
				// Pay-later orders have no session to reconcile.
				report.Skipped++
				continue
			}

			details, err := s.gateway.LookupSession(ctx, payments.PaymentContext{Currency: order.Totals.Currency}, payments.SessionLookupRequest{SessionID: order.CheckoutSessionID})
			if err != nil {
				s.logger(ctx, "checkout.reconcile.lookup_failed", map[string]any{
					"orderId": order.ID,
					"error":   err.Error(),
				})
				report.Skipped++
				continue
			}

			switch {
			case details.Status == payments.StatusSucceeded:
				if _, err := s.finalizePaid(ctx, order); err != nil {
					report.Skipped++
					continue
				}
				report.Confirmed++
			case details.Expired || details.Status == payments.StatusFailed:
				if _, err := s.FailBySession(ctx, order.CheckoutSessionID); err != nil {
					report.Skipped++
					continue
				}
				report.Failed++
			default:
				report.Skipped++
			}
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	s.logger(ctx, "checkout.reconcile.completed", map[string]any{
		"scanned":   report.Scanned,
		"confirmed": report.Confirmed,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	})
	return report, nil
}

func (s *checkoutService) finalizePaid(ctx context.Context, order domain.Order) (Order, error) {
	if err := s.stock.Commit(ctx, order.ID); err != nil {
		// A hold already converted by an earlier delivery attempt is fine.
		if !errors.Is(err, ErrInventoryInvalidState) {
			return Order{}, err
		}
	}

	// Placement already claimed the redemption; this is a backstop for
	// orders whose usage entry went missing, so a conflict is the normal
	// outcome here.
	now := s.clock()
	if order.Promotion != nil {
		_, err := s.usage.Record(ctx, domain.PromotionUsage{
			PromotionID: order.Promotion.PromotionID,
			Code:        order.Promotion.Code,
			UserID:      order.UserID,
			OrderID:     order.ID,
			UsedAt:      now,
		})
		if err != nil && !isConflict(err) {
			return Order{}, err
		}
	}

	order.PaymentStatus = domain.PaymentSucceeded
	order.PaidAt = &now
	order.UpdatedAt = now
	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, err
	}

	inventoryIDs := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		inventoryIDs = append(inventoryIDs, item.InventoryID)
	}
	if err := s.carts.RemoveLines(ctx, order.UserID, inventoryIDs); err != nil {
		s.logger(ctx, "checkout.cart.cleanup_failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
	}

	s.logger(ctx, "checkout.payment.confirmed", map[string]any{
		"orderId":     order.ID,
		"orderNumber": order.Number,
		"total":       order.Totals.Total,
	})
	s.publish(ctx, events.OrderEventPaid, order)
	return order, nil
}

func (s *checkoutService) snapshotItems(ctx context.Context, lines []domain.CartLine) ([]domain.OrderItem, int64, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	var subtotal int64

	for _, line := range lines {
		inv, err := s.inventory.FindByID(ctx, line.InventoryID)
		if err != nil {
			if isNotFound(err) {
				return nil, 0, fmt.Errorf("%w: inventory %s", ErrCheckoutStockUnavailable, line.InventoryID)
			}
			return nil, 0, err
		}
		product, err := s.products.FindByID(ctx, inv.ProductID)
		if err != nil {
			if isNotFound(err) {
				return nil, 0, fmt.Errorf("%w: product %s", ErrCheckoutStockUnavailable, inv.ProductID)
			}
			return nil, 0, err
		}

		item := domain.OrderItem{
			InventoryID: inv.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			SKU:         inv.SKU,
			SizeML:      inv.SizeML,
			UnitPrice:   inv.Price,
			Quantity:    line.Quantity,
		}
		if len(product.ImagePaths) > 0 {
			item.ImagePath = product.ImagePaths[0]
		}
		items = append(items, item)
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	return items, subtotal, nil
}

func (s *checkoutService) openSession(ctx context.Context, order domain.Order, locale string) (payments.CheckoutSession, error) {
	lineItems := make([]payments.CheckoutLineItem, 0, len(order.Items))
	amounts := make([]int64, 0, len(order.Items))
	for _, item := range order.Items {
		amounts = append(amounts, item.UnitPrice*int64(item.Quantity))
	}
	allocations := domain.AllocateDiscount(amounts, order.Totals.Discount)

	for i, item := range order.Items {
		line := payments.CheckoutLineItem{
			Name:     fmt.Sprintf("%s %dml", item.ProductName, item.SizeML),
			SKU:      item.SKU,
			Quantity: int64(item.Quantity),
			Amount:   item.UnitPrice,
			Currency: order.Totals.Currency,
		}
		if allocations[i] > 0 {
			// A discounted line is charged as one item for its exact
			// allocated total; dividing back to a unit price truncates
			// satang and the session sum no longer matches the order.
			line.Name = fmt.Sprintf("%s %dml x %d", item.ProductName, item.SizeML, item.Quantity)
			line.Quantity = 1
			line.Amount = amounts[i] - allocations[i]
		}
		lineItems = append(lineItems, line)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.PaymentContext{Currency: order.Totals.Currency}, payments.CheckoutSessionRequest{
		Amount:         order.Totals.Total,
		Currency:       order.Totals.Currency,
		SuccessURL:     s.successURL,
		CancelURL:      s.cancelURL,
		Locale:         locale,
		IdempotencyKey: order.ID + "-" + s.newID(),
		Metadata: map[string]string{
			"orderId":     order.ID,
			"orderNumber": order.Number,
			"userId":      order.UserID,
		},
		Items: lineItems,
	})
	if err != nil {
		return payments.CheckoutSession{}, err
	}
	return session, nil
}

func (s *checkoutService) compensateHold(ctx context.Context, orderID string) {
	if err := s.stock.Release(ctx, orderID); err != nil {
		s.logger(ctx, "checkout.hold.release_failed", map[string]any{
			"orderId": orderID,
			"error":   err.Error(),
		})
	}
}

// releaseUsage returns the order's promotion redemption. Only the entry this
// order recorded is removed; a redemption backing another order stays.
func (s *checkoutService) releaseUsage(ctx context.Context, order domain.Order) {
	if order.Promotion == nil {
		return
	}
	if err := s.usage.Release(ctx, order.Promotion.PromotionID, order.UserID, order.ID); err != nil {
		s.logger(ctx, "checkout.promotion.release_failed", map[string]any{
			"orderId":     order.ID,
			"promotionId": order.Promotion.PromotionID,
			"error":       err.Error(),
		})
	}
}

// reclaimUsage re-records the order's promotion redemption. A conflict held
// by this same order is fine; one held by another order means the code has
// been spent elsewhere in the meantime.
func (s *checkoutService) reclaimUsage(ctx context.Context, order domain.Order) error {
	if order.Promotion == nil {
		return nil
	}
	_, err := s.usage.Record(ctx, domain.PromotionUsage{
		PromotionID: order.Promotion.PromotionID,
		Code:        order.Promotion.Code,
		UserID:      order.UserID,
		OrderID:     order.ID,
		UsedAt:      s.clock(),
	})
	if err == nil {
		return nil
	}
	if isConflict(err) {
		existing, ferr := s.usage.Find(ctx, order.Promotion.PromotionID, order.UserID)
		if ferr == nil && existing.OrderID == order.ID {
			return nil
		}
		return ErrPromotionAlreadyUsed
	}
	return err
}

func (s *checkoutService) publish(ctx context.Context, eventType string, order domain.Order) {
	if s.events == nil {
		return
	}
	err := s.events.PublishOrderEvent(ctx, events.OrderEvent{
		Type:           eventType,
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
		s.logger(ctx, "checkout.event.publish_failed", map[string]any{
			"orderId": order.ID,
			"type":    eventType,
			"error":   err.Error(),
		})
	}
}

func selectedLines(cart domain.Cart) []domain.CartLine {
	selected := make([]domain.CartLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		if line.Selected && line.Quantity > 0 {
			selected = append(selected, line)
		}
	}
	return selected
}
