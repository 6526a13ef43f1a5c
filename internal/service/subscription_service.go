package service

import (
	"context"
	"errors"

	"github.com/nandusaji2001/ServConnect-sub001/internal/model"
	"github.com/nandusaji2001/ServConnect-sub001/internal/repository"

	"github.com/rs/zerolog"
)

// Configuration defaults applied when a field is omitted.
const (
	defaultThresholdPercentage = 20
	defaultFullWeightGrams     = 2000
	defaultTareWeightGrams     = 500
)

// ErrInvalidCalibration rejects cylinder weights that cannot produce a
// meaningful percentage: both must be positive and full must exceed tare.
var ErrInvalidCalibration = errors.New("full cylinder weight must exceed tare weight, both positive")

// SubscriptionConfig carries a user's monitoring configuration write. Zero
// numeric fields fall back to the defaults above.
type SubscriptionConfig struct {
	Phone                   string
	DeliveryAddress         string
	IsAutoBookingEnabled    bool
	PreferredVendorID       *string
	ThresholdPercentage     float64
	FullCylinderWeightGrams float64
	TareCylinderWeightGrams float64
	DeviceID                *string
}

// Dashboard is the consolidated view backing the user's monitoring page.
type Dashboard struct {
	Subscription         *model.Subscription `json:"subscription"`
	CurrentGasPercentage float64             `json:"current_gas_percentage"`
	GasStatus            string              `json:"gas_status"`
	CurrentWeightGrams   float64             `json:"current_weight_grams"`
	CurrentOrder         *model.Order        `json:"current_order,omitempty"`
	OrderHistory         []model.Order       `json:"order_history"`
}

// SubscriptionService manages the per-user monitoring configuration and the
// dashboard view built from it.
type SubscriptionService interface {
	Configure(ctx context.Context, userID string, cfg SubscriptionConfig) (*model.Subscription, error)
	Get(ctx context.Context, userID string) (*model.Subscription, error)
	// Delete removes the subscription; readings and order history survive.
	Delete(ctx context.Context, userID string) (bool, error)
	GetDashboard(ctx context.Context, userID string) (*Dashboard, error)
	ListVendors(ctx context.Context) ([]model.User, error)
}

type subscriptionService struct {
	subs      repository.SubscriptionRepository
	orders    repository.OrderRepository
	users     repository.UserRepository
	subLogger zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	orders repository.OrderRepository,
	users repository.UserRepository,
	logger zerolog.Logger,
) SubscriptionService {
	return &subscriptionService{
		subs:      subs,
		orders:    orders,
		users:     users,
		subLogger: logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) Configure(ctx context.Context, userID string, cfg SubscriptionConfig) (*model.Subscription, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if cfg.ThresholdPercentage == 0 {
		cfg.ThresholdPercentage = defaultThresholdPercentage
	}
	if cfg.FullCylinderWeightGrams == 0 {
		cfg.FullCylinderWeightGrams = defaultFullWeightGrams
	}
	if cfg.TareCylinderWeightGrams == 0 {
		cfg.TareCylinderWeightGrams = defaultTareWeightGrams
	}
	if cfg.FullCylinderWeightGrams <= 0 || cfg.TareCylinderWeightGrams <= 0 ||
		cfg.TareCylinderWeightGrams >= cfg.FullCylinderWeightGrams {
		return nil, ErrInvalidCalibration
	}

	phone := cfg.Phone
	if phone == "" {
		phone = user.Phone
	}
	address := cfg.DeliveryAddress
	if address == "" {
		address = user.Address
	}

	sub := &model.Subscription{
		UserID:                  userID,
		UserName:                user.FullName,
		UserEmail:               user.Email,
		UserPhone:               phone,
		DeliveryAddress:         address,
		IsAutoBookingEnabled:    cfg.IsAutoBookingEnabled,
		ThresholdPercentage:     cfg.ThresholdPercentage,
		FullCylinderWeightGrams: cfg.FullCylinderWeightGrams,
		TareCylinderWeightGrams: cfg.TareCylinderWeightGrams,
		DeviceID:                cfg.DeviceID,
	}

	if cfg.PreferredVendorID != nil && *cfg.PreferredVendorID != "" {
		vendor, err := s.users.GetByID(ctx, *cfg.PreferredVendorID)
		if err != nil {
			return nil, err
		}
		if vendor == nil {
			return nil, ErrVendorNotFound
		}
		name := vendor.DisplayName()
		sub.PreferredVendorID = cfg.PreferredVendorID
		sub.PreferredVendorName = &name
	}

	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	s.subLogger.Info().Str("user_id", userID).Bool("auto_booking", sub.IsAutoBookingEnabled).Msg("Subscription configured")
	return sub, nil
}

func (s *subscriptionService) Get(ctx context.Context, userID string) (*model.Subscription, error) {
	return s.subs.GetByUserID(ctx, userID)
}

func (s *subscriptionService) Delete(ctx context.Context, userID string) (bool, error) {
	deleted, err := s.subs.Delete(ctx, userID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.subLogger.Info().Str("user_id", userID).Msg("Subscription deleted")
	}
	return deleted, nil
}

func (s *subscriptionService) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	sub, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNoSubscription
	}

	dash := &Dashboard{
		Subscription:         sub,
		CurrentGasPercentage: sub.LastGasPercentage,
		CurrentWeightGrams:   sub.LastRecordedWeightGrams,
		GasStatus:            "No Data",
	}
	if sub.LastReadingAt != nil {
		dash.GasStatus = GasStatus(sub.LastRecordedWeightGrams, sub.FullCylinderWeightGrams)
	}

	if sub.CurrentPendingOrderID != nil {
		order, err := s.orders.GetByID(ctx, *sub.CurrentPendingOrderID)
		if err != nil {
			return nil, err
		}
		dash.CurrentOrder = order
	}

	history, err := s.orders.ListByUserID(ctx, userID, 5)
	if err != nil {
		return nil, err
	}
	dash.OrderHistory = history
	return dash, nil
}

func (s *subscriptionService) ListVendors(ctx context.Context) ([]model.User, error) {
	return s.users.ListGasVendors(ctx)
}
