package rest

import (
	"fmt"
	"net/http"
)

// StatusCodeRange is the hundreds class of an HTTP status code.
//
// The ordering of the constants matters: response handling treats
// everything up to Status2xx as a body to decode.
type StatusCodeRange int

const (
	StatusUnknown StatusCodeRange = iota
	Status1xx
	Status2xx
	Status3xx
	Status4xx
	Status5xx
)

func StatusCodeRangeOf(resp *http.Response) StatusCodeRange {
	switch resp.StatusCode / 100 {
	case 1:
		return Status1xx
	case 2:
		return Status2xx
	case 3:
		return Status3xx
	case 4:
		return Status4xx
	case 5:
		return Status5xx
	default:
		return StatusUnknown
	}
}

func (sc StatusCodeRange) String() string {
	switch sc {
	case Status2xx:
		return "success"
	case Status4xx:
		return "client error"
	case Status5xx:
		return "server error"
	case Status1xx, Status3xx:
		// the registry speaks neither informational responses nor redirects.
		return fmt.Sprintf("unexpected response class (%dxx)", sc)
	default:
		return "unknown status"
	}
}
