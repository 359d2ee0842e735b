package telephony

import (
	"errors"
	"fmt"

	twclient "github.com/twilio/twilio-go/client"
)

// APIError is an error response from the provider.
type APIError struct {
	Status   int    `json:"status"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("API error (%d): %d %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// mapError converts the SDK's REST error into an *APIError. Transport failures are
// wrapped unchanged.
func mapError(op string, err error) error {
	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) {
		return &APIError{
			Status:   restErr.Status,
			Code:     restErr.Code,
			Message:  restErr.Message,
			MoreInfo: restErr.MoreInfo,
		}
	}
	return fmt.Errorf("[telephony %s] %w", op, err)
}

// Known provider error codes.
const (
	CodeAuthenticationFailed = 20003
	CodeNotFound             = 20404
	CodeRateLimited          = 20429
	CodeGeoPermission        = 13227
	CodeInvalidTo            = 21211
	CodeInvalidFrom          = 21212
	CodeToNotReachable       = 21214
	CodeGeoPermissionTo      = 21215
	CodeNotValidNumber       = 21217
	CodeCallNotInProgress    = 21220
	CodeFromNotOwned         = 21606
)

var userMessages = map[int]string{
	CodeAuthenticationFailed: "Authentication with the voice provider failed. Check the API credentials.",
	CodeNotFound:             "The call could not be found.",
	CodeRateLimited:          "Too many requests to the voice provider. Please wait and try again.",
	CodeGeoPermission:        "Calling this region is not enabled for the account.",
	CodeInvalidTo:            "The number you are calling is not valid.",
	CodeInvalidFrom:          "The caller ID number is not valid.",
	CodeToNotReachable:       "The number you are calling cannot be reached.",
	CodeGeoPermissionTo:      "Calling this region is not enabled for the account.",
	CodeNotValidNumber:       "The number you are calling is not a valid phone number.",
	CodeCallNotInProgress:    "The call is no longer in progress.",
	CodeFromNotOwned:         "The caller ID number is not enabled for this account.",
}

// UserMessage maps an error from the provider to a message fit for end users. Unknown
// provider codes fall back to a generic message carrying the raw text.
func UserMessage(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "Provider request failed: " + err.Error()
	}
	if msg, ok := userMessages[apiErr.Code]; ok {
		return msg
	}
	return "Provider request failed: " + apiErr.Message
}
