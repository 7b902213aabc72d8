// Package response defines the envelope every handler outcome is wrapped in.
// A Result is either a success (status 200, optional payload) or a failure
// (status 400 or 500 plus a fixed message). Handlers build Results; only
// Send touches the transport.
package response

import (
	"net/http" // http provides the status codes used by the envelope

	"github.com/labstack/echo/v4" // echo writes the JSON body
)

// List is the payload returned by paginated listings.
type List[T any] struct {
	Items []T `json:"items"` // records of the requested page, in sort order
	Total int `json:"total"` // number of records matching the listing scope
	Pages int `json:"pages"` // ceil(Total / page size)
}

// Result is the outcome of a handler operation.
type Result struct {
	Status  int // 200, 400 or 500
	Payload any // record or List for successes; nil for bare acknowledgments
	Message string
}

// Body is the JSON shape written to the client.
type Body struct {
	Code   int    `json:"code"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OK wraps a payload in a success result.
func OK(payload any) Result {
	return Result{Status: http.StatusOK, Payload: payload}
}

// Empty is a bare success acknowledgment.
func Empty() Result {
	return Result{Status: http.StatusOK}
}

// BadRequest reports a validation failure.
func BadRequest(message string) Result {
	return Result{Status: http.StatusBadRequest, Message: message}
}

// Internal reports a storage failure. The message is fixed per call site and
// never carries the underlying cause.
func Internal(message string) Result {
	return Result{Status: http.StatusInternalServerError, Message: message}
}

// Failed reports whether the result is a failure.
func (r Result) Failed() bool {
	return r.Status != http.StatusOK
}

// Body converts the result into its wire representation.
func (r Result) Body() Body {
	if r.Failed() {
		return Body{Code: r.Status, Error: r.Message}
	}
	return Body{Code: r.Status, Result: r.Payload}
}

// Send writes the result as JSON.
func (r Result) Send(c echo.Context) error {
	return c.JSON(r.Status, r.Body())
}

// Pages returns how many pages of size pageSize are needed for total records.
// A partially filled last page counts as a page, so 23 records at 10 per
// page is 3 pages and 20 records is 2.
func Pages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
