package billing

import "fmt"

// Dispatcher selects the rate strategy matching a tariff type.
// Registration order is preserved; the first strategy whose Supports
// predicate matches wins.
type Dispatcher struct {
	strategies []RateStrategy
	names      map[string]struct{}
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{names: make(map[string]struct{})}
}

// NewDefaultDispatcher constructs a dispatcher with the built-in strategies.
func NewDefaultDispatcher() *Dispatcher {
	d := NewDispatcher()
	_ = d.Register(FlatRateStrategy{})
	_ = d.Register(TimeOfUseRateStrategy{})
	_ = d.Register(TieredRateStrategy{})
	return d
}

// Register adds a strategy. Duplicate names are rejected.
func (d *Dispatcher) Register(s RateStrategy) error {
	if d == nil || s == nil {
		return ErrStrategyAlreadyRegistered
	}
	name := s.Name()
	if _, exists := d.names[name]; exists {
		return fmt.Errorf("%w: %q", ErrStrategyAlreadyRegistered, name)
	}
	d.names[name] = struct{}{}
	d.strategies = append(d.strategies, s)
	return nil
}

// Resolve returns the strategy for the tariff type, or
// ErrUnsupportedTariffType when none supports it. Callers must not
// swallow this error; an unbillable tariff aborts the operation.
func (d *Dispatcher) Resolve(tariffType TariffType) (RateStrategy, error) {
	if d == nil {
		return nil, ErrUnsupportedTariffType
	}
	for _, s := range d.strategies {
		if s.Supports(tariffType) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedTariffType, tariffType)
}
