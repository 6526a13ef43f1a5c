package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nandusaji2001/ServConnect-sub001/internal/metrics"
	"github.com/nandusaji2001/ServConnect-sub001/internal/model"
	"github.com/nandusaji2001/ServConnect-sub001/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrNotOrderVendor     = errors.New("order is not owned by this vendor")
	ErrUserNotFound       = errors.New("user not found")
	ErrVendorNotFound     = errors.New("vendor not found")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrBookingPending     = errors.New("an order is already pending for this subscription")
	ErrNoSubscription     = errors.New("no gas subscription for user")
	ErrUnknownOrderStatus = errors.New("unknown order status")
)

// OrderDefaults is the fallback catalog entry used when the vendor has no
// active gas item.
type OrderDefaults struct {
	ItemName   string
	PriceCents int64
}

// OrderService owns the reorder lifecycle from creation through terminal
// states, and the weight-based delivery verification that can close it.
type OrderService interface {
	// Create builds an order with user/vendor/pricing snapshots taken now.
	// triggerPct and preWeightGrams are set for auto-triggered orders.
	Create(ctx context.Context, userID, vendorID string, autoTriggered bool, triggerPct, preWeightGrams *float64) (*model.Order, error)
	// PlaceManual creates a user-initiated order. When the user has a
	// subscription, it takes the same pending-booking claim as the automatic
	// path so the two cannot stack orders.
	PlaceManual(ctx context.Context, userID, vendorID string) (*model.Order, error)
	GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error)
	GetForVendor(ctx context.Context, vendorID, orderID string) (*model.Order, error)
	ListUserOrders(ctx context.Context, userID string, limit int) ([]model.Order, error)
	ListVendorOrders(ctx context.Context, vendorID string, limit int, onlyOpen bool) ([]model.Order, error)
	// UpdateStatus applies a vendor-driven transition. The vendor must own
	// the order and the transition must be legal from the current state.
	UpdateStatus(ctx context.Context, vendorID, orderID string, status model.OrderStatus, vendorMessage *string) (*model.Order, error)
	// VerifyDelivery compares a new raw weight against the pre-delivery
	// baseline and, when the increase matches a fresh cylinder, marks the
	// order verified and drives it to Delivered. Idempotent: callable on
	// every reading until verified or the order ends some other way.
	VerifyDelivery(ctx context.Context, orderID string, newWeightKg float64) (bool, error)
}

type orderService struct {
	orders      repository.OrderRepository
	subs        repository.SubscriptionRepository
	users       repository.UserRepository
	items       repository.ItemRepository
	notifier    Notifier
	defaults    OrderDefaults
	orderLogger zerolog.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orders repository.OrderRepository,
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	items repository.ItemRepository,
	notifier Notifier,
	defaults OrderDefaults,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orders:      orders,
		subs:        subs,
		users:       users,
		items:       items,
		notifier:    notifier,
		defaults:    defaults,
		orderLogger: logger.With().Str("service", "OrderService").Logger(),
	}
}

func (s *orderService) Create(ctx context.Context, userID, vendorID string, autoTriggered bool, triggerPct, preWeightGrams *float64) (*model.Order, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	vendor, err := s.users.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}

	sub, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Contact and address prefer the subscription's delivery details, falling
	// back to the profile.
	phone := user.Phone
	address := user.Address
	if sub != nil {
		if sub.UserPhone != "" {
			phone = sub.UserPhone
		}
		if sub.DeliveryAddress != "" {
			address = sub.DeliveryAddress
		}
		if preWeightGrams == nil {
			preWeightGrams = &sub.LastRecordedWeightGrams
		}
	}

	order := &model.Order{
		UserID:                 userID,
		UserName:               user.FullName,
		UserEmail:              user.Email,
		UserPhone:              phone,
		DeliveryAddress:        address,
		VendorID:               vendorID,
		VendorName:             vendor.DisplayName(),
		IsAutoTriggered:        autoTriggered,
		TriggerGasPercentage:   triggerPct,
		GasItemName:            s.defaults.ItemName,
		PriceCents:             s.defaults.PriceCents,
		Status:                 model.OrderPending,
		PreDeliveryWeightGrams: preWeightGrams,
	}

	item, err := s.items.FindActiveGasItem(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if item != nil {
		order.GasItemID = &item.ID
		order.GasItemName = item.Title
		order.PriceCents = item.PriceCents
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		s.orderLogger.Error().Err(err).Str("user_id", userID).Str("vendor_id", vendorID).Msg("Failed to create order")
		return nil, err
	}
	return order, nil
}

func (s *orderService) PlaceManual(ctx context.Context, userID, vendorID string) (*model.Order, error) {
	sub, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	claimed := false
	if sub != nil {
		claimed, err = s.subs.TryClaimPendingBooking(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, ErrBookingPending
		}
	}

	order, err := s.Create(ctx, userID, vendorID, false, nil, nil)
	if err != nil {
		if claimed {
			if rerr := s.subs.ReleasePendingBooking(ctx, userID); rerr != nil {
				s.orderLogger.Error().Err(rerr).Str("user_id", userID).Msg("Failed to release pending booking after create failure")
			}
		}
		return nil, err
	}

	if claimed {
		if err := s.subs.SetPendingOrder(ctx, userID, order.ID, time.Now().UTC()); err != nil {
			s.orderLogger.Error().Err(err).Str("order_id", order.ID).Msg("Failed to record pending order id")
		}
	}

	s.notifier.Notify(ctx, vendorID, "New Gas Order",
		fmt.Sprintf("New gas order from %s.", order.UserName),
		CategoryOrderPlaced, order.ID, "/Vendor/GasOrders")
	return order, nil
}

func (s *orderService) GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) GetForVendor(ctx context.Context, vendorID, orderID string) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.VendorID != vendorID {
		return nil, ErrNotOrderVendor
	}
	return order, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID string, limit int) ([]model.Order, error) {
	return s.orders.ListByUserID(ctx, userID, limit)
}

func (s *orderService) ListVendorOrders(ctx context.Context, vendorID string, limit int, onlyOpen bool) ([]model.Order, error) {
	if onlyOpen {
		return s.orders.ListOpenByVendorID(ctx, vendorID)
	}
	return s.orders.ListByVendorID(ctx, vendorID, limit)
}

// canTransition encodes the lifecycle:
// Pending -> Accepted -> OutForDelivery -> Delivered, with Cancelled and
// Rejected reachable from any non-terminal state. forced is the delivery
// verifier's path, allowed to jump straight to Delivered.
func canTransition(from, to model.OrderStatus, forced bool) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case model.OrderCancelled, model.OrderRejected:
		return true
	case model.OrderAccepted:
		return from == model.OrderPending
	case model.OrderOutForDelivery:
		return from == model.OrderAccepted
	case model.OrderDelivered:
		return forced || from == model.OrderOutForDelivery
	}
	return false
}

func (s *orderService) UpdateStatus(ctx context.Context, vendorID, orderID string, status model.OrderStatus, vendorMessage *string) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrderStatus, status)
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.VendorID != vendorID {
		return nil, ErrNotOrderVendor
	}
	return s.transition(ctx, order, status, vendorMessage, false)
}

func (s *orderService) transition(ctx context.Context, order *model.Order, status model.OrderStatus, vendorMessage *string, forced bool) (*model.Order, error) {
	if !canTransition(order.Status, status, forced) {
		return nil, fmt.Errorf("%w: %s -> %s on order %s", ErrInvalidTransition, order.Status, status, order.ID)
	}

	now := time.Now().UTC()
	order.Status = status
	order.UpdatedAt = &now
	if vendorMessage != nil && *vendorMessage != "" {
		order.VendorMessage = vendorMessage
	}

	switch status {
	case model.OrderAccepted:
		order.AcceptedAt = &now
	case model.OrderOutForDelivery:
		order.OutForDeliveryAt = &now
	case model.OrderDelivered:
		order.DeliveredAt = &now
	}

	if err := s.orders.ApplyTransition(ctx, order); err != nil {
		return nil, err
	}

	// Terminal states free the subscription for a future automatic order.
	if status.Terminal() {
		if err := s.subs.ReleasePendingBooking(ctx, order.UserID); err != nil {
			s.orderLogger.Error().Err(err).Str("order_id", order.ID).Msg("Failed to release pending booking flag")
		}
	}

	s.notifyTransition(ctx, order, vendorMessage)
	return order, nil
}

func (s *orderService) notifyTransition(ctx context.Context, order *model.Order, vendorMessage *string) {
	link := "/GasSubscription/OrderDetails/" + order.ID
	switch order.Status {
	case model.OrderAccepted:
		s.notifier.Notify(ctx, order.UserID, "Gas Order Accepted",
			fmt.Sprintf("Your gas order has been accepted by %s.", order.VendorName),
			CategoryOrderAccepted, order.ID, link)
	case model.OrderOutForDelivery:
		s.notifier.Notify(ctx, order.UserID, "Gas Cylinder Out for Delivery",
			"Your gas cylinder is on its way! Expect delivery soon.",
			CategoryOrderOutForDelivery, order.ID, link)
	case model.OrderDelivered:
		s.notifier.Notify(ctx, order.UserID, "Gas Cylinder Delivered",
			"Your gas cylinder has been delivered. Enjoy uninterrupted cooking!",
			CategoryOrderDelivered, order.ID, link)
	case model.OrderCancelled, model.OrderRejected:
		body := fmt.Sprintf("Your gas order has been %s.", string(order.Status))
		if vendorMessage != nil && *vendorMessage != "" {
			body = *vendorMessage
		}
		title := "Gas Order Cancelled"
		if order.Status == model.OrderRejected {
			title = "Gas Order Rejected"
		}
		s.notifier.Notify(ctx, order.UserID, title, body, CategoryOrderCancelled, order.ID, link)
	}
}

func (s *orderService) VerifyDelivery(ctx context.Context, orderID string, newWeightKg float64) (bool, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, ErrOrderNotFound
	}
	if order.IsDeliveryVerified {
		return true, nil
	}
	if order.Status.Terminal() {
		return false, nil
	}

	sub, err := s.subs.GetByUserID(ctx, order.UserID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, ErrNoSubscription
	}

	newWeightGrams := newWeightKg * 1000
	var preWeight float64
	if order.PreDeliveryWeightGrams != nil {
		preWeight = *order.PreDeliveryWeightGrams
	}
	increase := newWeightGrams - preWeight
	// A fresh cylinder should add at least half the full weight.
	expected := sub.FullCylinderWeightGrams * 0.5
	verified := increase >= expected

	if !verified {
		if err := s.orders.SetDeliveryVerification(ctx, order.ID, newWeightGrams, false); err != nil {
			return false, err
		}
		return false, nil
	}

	// The flag rides along on the Delivered transition so both land in one
	// write; a failed transition leaves the order unverified and retryable.
	msg := "Delivery verified automatically by weight sensor"
	order.IsDeliveryVerified = true
	order.PostDeliveryWeightGrams = &newWeightGrams
	if _, err := s.transition(ctx, order, model.OrderDelivered, &msg, true); err != nil {
		return false, err
	}

	s.orderLogger.Info().Str("order_id", order.ID).Float64("increase_grams", increase).Msg("Delivery verified by weight increase")
	metrics.DeliveriesVerified.Inc()
	return true, nil
}
