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

	domain "github.com/aromelle/api/internal/domain"
	pfirestore "github.com/aromelle/api/internal/platform/firestore"
	"github.com/aromelle/api/internal/repositories"
)

const orderCollection = "orders"

// OrderRepository persists orders created at checkout and updated by the
// payment reconciliation and fulfilment flows.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		base:     pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil),
		provider: provider,
	}, nil
}

func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	if _, err := client.Collection(orderCollection).Doc(order.ID).Create(ctx, newOrderDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, order.ID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var existing orderDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
		}
		doc := newOrderDocument(order)
		doc.CreatedAt = existing.CreatedAt
		return tx.Set(ref, doc)
	})
	if err != nil {
		return pfirestore.WrapError("orders.update", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *OrderRepository) FindBySessionID(ctx context.Context, sessionID string) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Order{}, errors.New("order repository: session id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.findBySession", err)
	}
	iter := client.Collection(orderCollection).Where("checkoutSessionId", "==", sessionID).Limit(1).Documents(ctx)
	defer iter.Stop()
	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return domain.Order{}, pfirestore.WrapError("orders.findBySession", status.Error(codes.NotFound, "order not found"))
	}
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.findBySession", err)
	}
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, pfirestore.WrapError("orders.list", err)
	}

	query := client.Collection(orderCollection).Query
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		query = query.Where("userId", "==", userID)
	}
	if len(filter.PaymentStatus) == 1 {
		query = query.Where("paymentStatus", "==", string(filter.PaymentStatus[0]))
	} else if len(filter.PaymentStatus) > 1 {
		query = query.Where("paymentStatus", "in", paymentStatusStrings(filter.PaymentStatus))
	}
	if len(filter.ShippingStatus) == 1 {
		query = query.Where("shippingStatus", "==", string(filter.ShippingStatus[0]))
	} else if len(filter.ShippingStatus) > 1 {
		query = query.Where("shippingStatus", "in", shippingStatusStrings(filter.ShippingStatus))
	}
	if filter.CreatedAfter != nil {
		query = query.Where("createdAt", ">=", filter.CreatedAfter.UTC())
	}
	if filter.CreatedBefore != nil {
		query = query.Where("createdAt", "<", filter.CreatedBefore.UTC())
	}

	query = query.
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(pageSize + 1)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		createdAt, id, err := decodePageToken(token)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("orders.list: invalid page token: %w", err)
		}
		query = query.StartAfter(createdAt, id)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var orders []domain.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Order]{}, pfirestore.WrapError("orders.list", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
		}
		orders = append(orders, doc.toDomain(snap.Ref.ID))
	}

	var nextToken string
	if len(orders) > pageSize {
		orders = orders[:pageSize]
		last := orders[len(orders)-1]
		encoded, err := encodePageToken(last.CreatedAt, last.ID)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.Order]{Items: orders, NextPageToken: nextToken}, nil
}

// Helper structures ---------------------------------------------------------

type orderDocument struct {
	Number            string               `firestore:"number"`
	UserID            string               `firestore:"userId"`
	Items             []orderItemDocument  `firestore:"items"`
	Currency          string               `firestore:"currency"`
	Subtotal          int64                `firestore:"subtotal"`
	Discount          int64                `firestore:"discount"`
	Total             int64                `firestore:"total"`
	Promotion         *orderPromotionDoc   `firestore:"promotion,omitempty"`
	Address           orderAddressDocument `firestore:"address"`
	PaymentStatus     string               `firestore:"paymentStatus"`
	ShippingStatus    string               `firestore:"shippingStatus"`
	CheckoutSessionID string               `firestore:"checkoutSessionId,omitempty"`
	StatusTimestamps  map[string]time.Time `firestore:"statusTimestamps,omitempty"`
	PaidAt            *time.Time           `firestore:"paidAt,omitempty"`
	CreatedAt         time.Time            `firestore:"createdAt"`
	UpdatedAt         time.Time            `firestore:"updatedAt"`
}

type orderItemDocument struct {
	InventoryID string `firestore:"inventoryId"`
	ProductID   string `firestore:"productId"`
	ProductName string `firestore:"productName"`
	SKU         string `firestore:"sku,omitempty"`
	SizeML      int    `firestore:"sizeMl,omitempty"`
	ImagePath   string `firestore:"imagePath,omitempty"`
	UnitPrice   int64  `firestore:"unitPrice"`
	Quantity    int    `firestore:"qty"`
}

type orderPromotionDoc struct {
	PromotionID        string `firestore:"promotionId"`
	Code               string `firestore:"code"`
	DiscountPercentage int    `firestore:"discountPercentage"`
}

type orderAddressDocument struct {
	Recipient  string `firestore:"recipient"`
	Phone      string `firestore:"phone"`
	Line1      string `firestore:"line1"`
	Line2      string `firestore:"line2,omitempty"`
	District   string `firestore:"district"`
	Province   string `firestore:"province"`
	PostalCode string `firestore:"postalCode"`
}

func newOrderDocument(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			InventoryID: item.InventoryID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			SizeML:      item.SizeML,
			ImagePath:   item.ImagePath,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	var promo *orderPromotionDoc
	if order.Promotion != nil {
		promo = &orderPromotionDoc{
			PromotionID:        order.Promotion.PromotionID,
			Code:               order.Promotion.Code,
			DiscountPercentage: order.Promotion.DiscountPercentage,
		}
	}

	var timestamps map[string]time.Time
	if len(order.StatusTimestamps) > 0 {
		timestamps = make(map[string]time.Time, len(order.StatusTimestamps))
		for s, t := range order.StatusTimestamps {
			timestamps[string(s)] = t.UTC()
		}
	}

	var paidAt *time.Time
	if order.PaidAt != nil {
		utc := order.PaidAt.UTC()
		paidAt = &utc
	}

	return orderDocument{
		Number:   order.Number,
		UserID:   order.UserID,
		Items:    items,
		Currency: order.Totals.Currency,
		Subtotal: order.Totals.Subtotal,
		Discount: order.Totals.Discount,
		Total:    order.Totals.Total,
		Promotion: promo,
		Address: orderAddressDocument{
			Recipient:  order.Address.Recipient,
			Phone:      order.Address.Phone,
			Line1:      order.Address.Line1,
			Line2:      order.Address.Line2,
			District:   order.Address.District,
			Province:   order.Address.Province,
			PostalCode: order.Address.PostalCode,
		},
		PaymentStatus:     string(order.PaymentStatus),
		ShippingStatus:    string(order.ShippingStatus),
		CheckoutSessionID: order.CheckoutSessionID,
		StatusTimestamps:  timestamps,
		PaidAt:            paidAt,
		CreatedAt:         order.CreatedAt.UTC(),
		UpdatedAt:         order.UpdatedAt.UTC(),
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.OrderItem{
			InventoryID: item.InventoryID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			SizeML:      item.SizeML,
			ImagePath:   item.ImagePath,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	var promo *domain.OrderPromotion
	if d.Promotion != nil {
		promo = &domain.OrderPromotion{
			PromotionID:        d.Promotion.PromotionID,
			Code:               d.Promotion.Code,
			DiscountPercentage: d.Promotion.DiscountPercentage,
		}
	}

	var timestamps map[domain.ShippingStatus]time.Time
	if len(d.StatusTimestamps) > 0 {
		timestamps = make(map[domain.ShippingStatus]time.Time, len(d.StatusTimestamps))
		for s, t := range d.StatusTimestamps {
			timestamps[domain.ShippingStatus(s)] = t
		}
	}

	return domain.Order{
		ID:     id,
		Number: d.Number,
		UserID: d.UserID,
		Items:  items,
		Totals: domain.OrderTotals{
			Currency: d.Currency,
			Subtotal: d.Subtotal,
			Discount: d.Discount,
			Total:    d.Total,
		},
		Promotion: promo,
		Address: domain.OrderAddress{
			Recipient:  d.Address.Recipient,
			Phone:      d.Address.Phone,
			Line1:      d.Address.Line1,
			Line2:      d.Address.Line2,
			District:   d.Address.District,
			Province:   d.Address.Province,
			PostalCode: d.Address.PostalCode,
		},
		PaymentStatus:     domain.PaymentStatus(d.PaymentStatus),
		ShippingStatus:    domain.ShippingStatus(d.ShippingStatus),
		CheckoutSessionID: d.CheckoutSessionID,
		StatusTimestamps:  timestamps,
		PaidAt:            d.PaidAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func paymentStatusStrings(statuses []domain.PaymentStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func shippingStatusStrings(statuses []domain.ShippingStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

// Ensure interface compliance.
var _ repositories.OrderRepository = (*OrderRepository)(nil)
