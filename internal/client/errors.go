package client

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/pkg/transport"
)

// GenericMessage is shown to users for failures that carry no safe detail.
const GenericMessage = "Something went wrong. Please try again."

// ErrRateLimited is returned when the local request budget is exhausted.
var ErrRateLimited = transport.ErrRateLimited

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api: %d %s", e.Status, http.StatusText(e.Status))
	if e.Code != "" {
		b.WriteString(" (" + e.Code + ")")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsRetryable reports whether repeating the same request later may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch status := statusOf(err); {
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return true
	case status != 0:
		return false
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, transport.ErrCircuitOpen)
}

// UserMessage returns text suitable for display. Client errors with a server
// provided message show that message; everything else gets GenericMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) &&
		apiErr.Status >= 400 && apiErr.Status < 500 &&
		apiErr.Status != http.StatusUnauthorized &&
		apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericMessage
}

// maxErrorText bounds the raw body kept when the error body is not JSON.
const maxErrorText = 256

// decodeAPIError builds an APIError from a response body. Recognised shapes
// are {"error":{"code","message"}} and {"code","message"}; anything else is
// kept as text.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if len(body) == 0 {
		return apiErr
	}

	readFields := func(d *jx.Decoder, key string) (bool, error) {
		switch key {
		case "code":
			// Some servers send numeric codes.
			raw, err := d.Raw()
			if err != nil {
				return true, err
			}
			apiErr.Code = strings.Trim(raw.String(), `"`)
			return true, nil
		case "message":
			v, err := d.Str()
			apiErr.Message = v
			return true, err
		}
		return false, nil
	}

	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key == "error" {
			if d.Next() == jx.String {
				v, err := d.Str()
				if apiErr.Message == "" {
					apiErr.Message = v
				}
				return err
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if ok, err := readFields(d, key); ok {
					return err
				}
				return d.Skip()
			})
		}
		if ok, err := readFields(d, key); ok {
			return err
		}
		return d.Skip()
	})
	if err != nil {
		text := strings.TrimSpace(string(body))
		text = truncate(text, maxErrorText)
		return &APIError{Status: status, Message: text}
	}
	return apiErr
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
