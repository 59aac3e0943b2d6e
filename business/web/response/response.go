// Package response provides the envelope every ledger API response is
// written in.
package response

import (
	"context"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/web"
)

// Envelope is the form used for successful API responses. Failures use the
// same code and msg fields.
type Envelope[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

// Respond wraps the data in an envelope and sends it to the client.
func Respond(ctx context.Context, w http.ResponseWriter, msg string, data any, statusCode int) error {
	env := Envelope[any]{
		Code: statusCode,
		Msg:  msg,
		Data: data,
	}

	return web.Respond(ctx, w, env, statusCode)
}
