package services

import (
	"errors"
	"fmt"

	"formfill/utils"
)

// ErrChainExhausted is returned by RunChain when no strategy succeeded.
var ErrChainExhausted = errors.New("all fallback strategies failed")

// Strategy is one way of getting something done. Run returns nil on success.
type Strategy struct {
	Name string
	Run  func() error
}

// RunChain tries strategies in order and stops at the first success, returning its name.
// When all fail the error wraps ErrChainExhausted and every strategy's error.
func RunChain(strategies ...Strategy) (string, error) {
	var errs []error
	for _, s := range strategies {
		err := s.Run()
		if err == nil {
			return s.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	if len(errs) == 0 {
		return "", ErrChainExhausted
	}
	return "", fmt.Errorf("%w: %w", ErrChainExhausted, errors.Join(errs...))
}

// BestEffort runs an optional step. Failure is logged and otherwise ignored.
func BestEffort(name string, run func() error) bool {
	if err := run(); err != nil {
		utils.LogDebug("Optional step failed", map[string]interface{}{"step": name, "error": err.Error()})
		return false
	}
	return true
}
