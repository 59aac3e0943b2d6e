package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/cenkalti/backoff"
)

// ErrPeerProtocol is returned when a peer answers in a way that does not
// match the node API.
var ErrPeerProtocol = errors.New("peer protocol error")

const baseURL = "http://%s/v1"

// maxChainResponse limits how much of a peer response is read.
const maxChainResponse = 64 << 20

// NetRequestPeerChain retrieves the full chain held by the specified peer.
// Network failures are retried with an exponential backoff, a response that
// can't be understood is not.
func (s *State) NetRequestPeerChain(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	var env struct {
		Code int              `json:"code"`
		Msg  string           `json:"msg"`
		Data []database.Block `json:"data"`
	}

	op := func() error {
		return send(ctx, s.client, http.MethodGet, url, &env)
	}

	notify := func(err error, wait time.Duration) {
		s.evHandler("state: NetRequestPeerChain: peer[%s]: retry in %v: %s", pr, wait, err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.fetchRetries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}

	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: empty chain from %s", ErrPeerProtocol, pr)
	}

	return env.Data, nil
}

// send is a helper function to send an HTTP request to a node.
func send(ctx context.Context, client *http.Client, method string, url string, dataRecv any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrPeerProtocol, resp.StatusCode, msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxChainResponse)).Decode(dataRecv); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: decode: %w", ErrPeerProtocol, err))
		}
	}

	return nil
}
