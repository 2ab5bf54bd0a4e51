package rest_test

import (
	"net/http"
	"testing"

	krst "github.com/mlopslab/mlreg/pkg/sdk/rest"
)

func TestStatusCodeRangeOf(t *testing.T) {
	for name, testcase := range map[string]struct {
		statusCode int
		expected   krst.StatusCodeRange
	}{
		"100 Continue":         {http.StatusContinue, krst.Status1xx},
		"200 OK":               {http.StatusOK, krst.Status2xx},
		"201 Created":          {http.StatusCreated, krst.Status2xx},
		"302 Found":            {http.StatusFound, krst.Status3xx},
		"400 Bad Request":      {http.StatusBadRequest, krst.Status4xx},
		"404 Not Found":        {http.StatusNotFound, krst.Status4xx},
		"500 Internal Error":   {http.StatusInternalServerError, krst.Status5xx},
		"out of known classes": {700, krst.StatusUnknown},
	} {
		t.Run(name, func(t *testing.T) {
			actual := krst.StatusCodeRangeOf(&http.Response{StatusCode: testcase.statusCode})
			if actual != testcase.expected {
				t.Errorf(
					"unmatch: (actual, expected) = (%s, %s)",
					actual, testcase.expected,
				)
			}
		})
	}
}

func TestStatusCodeRange_String(t *testing.T) {
	for _, testcase := range []struct {
		scr      krst.StatusCodeRange
		expected string
	}{
		{krst.Status2xx, "success"},
		{krst.Status4xx, "client error"},
		{krst.Status5xx, "server error"},
		{krst.Status1xx, "unexpected response class (1xx)"},
		{krst.Status3xx, "unexpected response class (3xx)"},
		{krst.StatusUnknown, "unknown status"},
	} {
		t.Run(testcase.expected, func(t *testing.T) {
			if actual := testcase.scr.String(); actual != testcase.expected {
				t.Errorf(
					"unmatch: (actual, expected) = (%s, %s)",
					actual, testcase.expected,
				)
			}
		})
	}
}
