package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Kind classifies a failed delivery for the retry policy.
type Kind int

const (
	// Transient covers network failures and 5xx responses.
	Transient Kind = iota
	// RateLimited is a 429 carrying an optional retry-after.
	RateLimited
	// Permanent is any other 4xx, e.g. a bot blocked by the user.
	Permanent
)

func (k Kind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case Permanent:
		return "permanent"
	default:
		return "transient"
	}
}

// DeliveryError is returned by Sender implementations when a request fails.
type DeliveryError struct {
	Kind       Kind
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("telegram %s (%d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("telegram %s: %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Classify maps a Bot API error onto a DeliveryError. Errors without an API
// status code are treated as transient network failures.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return err
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return &DeliveryError{Kind: Transient, Err: err}
	}
	return FromStatus(apiErr.Code, time.Duration(apiErr.RetryAfter)*time.Second, err)
}

// FromStatus builds a DeliveryError from an HTTP-style status code.
func FromStatus(code int, retryAfter time.Duration, err error) *DeliveryError {
	switch {
	case code == http.StatusTooManyRequests:
		return &DeliveryError{Kind: RateLimited, StatusCode: code, RetryAfter: retryAfter, Err: err}
	case code >= 400 && code < 500:
		return &DeliveryError{Kind: Permanent, StatusCode: code, Err: err}
	default:
		return &DeliveryError{Kind: Transient, StatusCode: code, Err: err}
	}
}
