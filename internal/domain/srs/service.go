package srs

import (
	"time"

	"github.com/aslema/aslema-api/internal/domain"
)

// Service defines the interface for SM-2 scheduling operations.
type Service interface {
	// Update computes the next review state from the prior state and a
	// quality rating. It returns domain.ErrInvalidQuality when quality is
	// outside 0..5; this is input validation, not a scheduling decision.
	Update(prior State, quality int, now time.Time) (Result, error)

	// IsCorrect reports whether the given quality counts as a correct
	// answer under the configured pass threshold.
	IsCorrect(quality int) bool
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates an SRS service with the standard SM-2 parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates an SRS service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

func (s *defaultService) Update(prior State, quality int, now time.Time) (Result, error) {
	if quality < 0 || quality > 5 {
		return Result{}, domain.ErrInvalidQuality
	}

	return calculateNext(prior, quality, now, s.params), nil
}

func (s *defaultService) IsCorrect(quality int) bool {
	return quality >= s.params.PassThreshold
}
