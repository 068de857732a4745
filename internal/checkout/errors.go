package checkout

import "errors"

const (
	msgSelectPackage   = "select package/payment"
	msgMissingEmail    = "missing email"
	msgInvalidEmail    = "invalid email"
	msgInquiryRequired = "check the bill first"
)

// ValidationError is a problem detected before anything is sent to the API.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	// ErrSubmitting is returned when a submission is already in flight.
	ErrSubmitting = errors.New("checkout: submission already in progress")
	// ErrItemUnavailable is returned when selecting an inactive or out-of-stock item.
	ErrItemUnavailable = errors.New("checkout: item is not available")
	// ErrChannelUnavailable is returned when selecting an unknown or inactive channel.
	ErrChannelUnavailable = errors.New("checkout: payment channel is not available")
)
