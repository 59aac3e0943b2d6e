package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/business/web/response"
)

var client = http.Client{Timeout: 10 * time.Minute}

// call sends the request to the node and decodes the enveloped response
// into the data value.
func call[T any](method string, path string, body any) (response.Envelope[T], error) {
	var env response.Envelope[T]

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return env, err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimSuffix(url, "/")+path, r)
	if err != nil {
		return env, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return env, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var er errs.Response
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return env, fmt.Errorf("status %d", resp.StatusCode)
		}

		msg := er.Msg
		for field, fieldErr := range er.Fields {
			msg += fmt.Sprintf(": %s: %s", field, fieldErr)
		}
		return env, errors.New(msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return env, fmt.Errorf("decoding response: %w", err)
	}

	return env, nil
}
