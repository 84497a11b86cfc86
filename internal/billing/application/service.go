package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	billing "utility-cloud/internal/billing/domain"
)

const defaultCurrency = "EUR"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service handles tariff management and quote use cases.
type Service struct {
	repo       billing.Repository
	dispatcher *billing.Dispatcher
	clock      Clock
}

// NewService constructs the billing application service.
func NewService(repo billing.Repository, dispatcher *billing.Dispatcher, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("billing service: nil repository")
	}
	if dispatcher == nil {
		dispatcher = billing.NewDefaultDispatcher()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, dispatcher: dispatcher, clock: clock}, nil
}

// CreateTariff validates and stores a new tariff. The configuration
// payload must match the declared type.
func (s *Service) CreateTariff(ctx context.Context, tenantID, name, tariffType, currency string, configuration []byte) (*billing.Tariff, error) {
	if s == nil {
		return nil, errors.New("billing service: nil service")
	}
	if tenantID == "" {
		return nil, errors.New("billing service: empty tenant id")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("billing service: empty tariff name")
	}
	typ, ok := billing.NormalizeTariffType(tariffType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", billing.ErrUnsupportedTariffType, tariffType)
	}
	if currency == "" {
		currency = defaultCurrency
	}

	now := s.clock.Now().UTC()
	tariff := &billing.Tariff{
		ID:        newTariffID(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(name),
		Type:      typ,
		Currency:  currency,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tariff.UnmarshalConfiguration(configuration); err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrInvalidConfiguration, err)
	}
	if err := billing.ValidateTariff(tariff); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tariff); err != nil {
		return nil, err
	}
	return tariff, nil
}

// UpdateConfiguration replaces a tariff's configuration after validation.
func (s *Service) UpdateConfiguration(ctx context.Context, tenantID, id string, configuration []byte) (*billing.Tariff, error) {
	tariff, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	tariff.Flat, tariff.TimeOfUse, tariff.Tiered = nil, nil, nil
	if err := tariff.UnmarshalConfiguration(configuration); err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrInvalidConfiguration, err)
	}
	if err := billing.ValidateTariff(tariff); err != nil {
		return nil, err
	}
	tariff.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, tariff); err != nil {
		return nil, err
	}
	return tariff, nil
}

// SetActive flips a tariff's billable flag.
func (s *Service) SetActive(ctx context.Context, tenantID, id string, active bool) (*billing.Tariff, error) {
	tariff, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	tariff.Active = active
	tariff.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, tariff); err != nil {
		return nil, err
	}
	return tariff, nil
}

// GetTariff fetches one tariff scoped to the tenant.
func (s *Service) GetTariff(ctx context.Context, tenantID, id string) (*billing.Tariff, error) {
	return s.getOwned(ctx, tenantID, id)
}

// ListTariffs returns all tariffs of the tenant.
func (s *Service) ListTariffs(ctx context.Context, tenantID string) ([]*billing.Tariff, error) {
	if s == nil {
		return nil, errors.New("billing service: nil service")
	}
	if tenantID == "" {
		return nil, errors.New("billing service: empty tenant id")
	}
	return s.repo.ListByTenant(ctx, tenantID)
}

// QuoteRequest asks for the cost of a consumption amount under a tariff.
type QuoteRequest struct {
	TenantID    string
	TariffID    string
	Consumption decimal.Decimal
	At          time.Time
}

// QuoteResult is the priced outcome of a quote.
type QuoteResult struct {
	TariffID    string          `json:"tariff_id"`
	Strategy    string          `json:"strategy"`
	Consumption decimal.Decimal `json:"consumption"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	At          time.Time       `json:"at"`
}

// Quote prices a consumption amount at a timestamp under the tariff's
// strategy. The timestamp defaults to now.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	if s == nil {
		return QuoteResult{}, errors.New("billing service: nil service")
	}
	if req.Consumption.IsNegative() {
		return QuoteResult{}, billing.ErrNegativeConsumption
	}
	tariff, err := s.getOwned(ctx, req.TenantID, req.TariffID)
	if err != nil {
		return QuoteResult{}, err
	}
	if !tariff.Active {
		return QuoteResult{}, fmt.Errorf("%w: %s", billing.ErrTariffInactive, tariff.ID)
	}

	at := req.At
	if at.IsZero() {
		at = s.clock.Now()
	}
	at = at.UTC()

	strategy, err := s.dispatcher.Resolve(tariff.Type)
	if err != nil {
		return QuoteResult{}, err
	}
	amount, err := strategy.Calculate(tariff, req.Consumption, at)
	if err != nil {
		return QuoteResult{}, err
	}
	return QuoteResult{
		TariffID:    tariff.ID,
		Strategy:    strategy.Name(),
		Consumption: req.Consumption,
		Amount:      amount,
		Currency:    tariff.Currency,
		At:          at,
	}, nil
}

// PriceAt prices one unit of consumption at a timestamp, for callers
// that apply the rate to their own deltas.
func (s *Service) PriceAt(ctx context.Context, tenantID, tariffID string, consumption decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	result, err := s.Quote(ctx, QuoteRequest{TenantID: tenantID, TariffID: tariffID, Consumption: consumption, At: at})
	if err != nil {
		return decimal.Zero, err
	}
	return result.Amount, nil
}

func (s *Service) getOwned(ctx context.Context, tenantID, id string) (*billing.Tariff, error) {
	if s == nil {
		return nil, errors.New("billing service: nil service")
	}
	if tenantID == "" {
		return nil, errors.New("billing service: empty tenant id")
	}
	if id == "" {
		return nil, billing.ErrTariffNotFound
	}
	tariff, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if tariff == nil {
		return nil, fmt.Errorf("%w: %s", billing.ErrTariffNotFound, id)
	}
	return tariff, nil
}

func newTariffID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "trf-" + hex.EncodeToString(buf)
}
