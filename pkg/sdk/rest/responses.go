package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apierr "github.com/mlopslab/mlreg-api-types/errors"
)

type MessageFor map[StatusCodeRange]string

// unmarshal http response which has json content.
//
// args:
//   - resp: http response to be processed.
//   - v: value which response should be.
//   - messageFor: title of error message for HTTP status code range.
//
// return:
//
//	error if...
//	- can not read response body
//	- response body is not shaped of v
//	- status code is in 4xx or 5xx
func unmarshalJsonResponse[T any](resp *http.Response, v *T, messageFor MessageFor) error {
	scr := StatusCodeRangeOf(resp)
	if scr <= Status2xx {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf(
				"unexpected error: %w (status code = %d)", err, resp.StatusCode,
			)
		}
		return nil
	}

	message, ok := messageFor[scr]
	if !ok {
		message = scr.String()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s\ncannot read server message: %w", message, err)
	}

	return fmt.Errorf("%s\n%s", message, parseErrorMessage(body))
}

// extract the error envelope of the registry, if the body carries one.
func parseErrorMessage(body []byte) string {
	eresp := apierr.ErrorResponse{}
	if err := json.Unmarshal(body, &eresp); err == nil && eresp.Message.Reason != "" {
		return eresp.Message.String()
	}
	return string(body)
}
