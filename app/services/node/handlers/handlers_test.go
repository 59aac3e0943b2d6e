package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/business/web/response"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/logger"
)

// Success and failed markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// NodeTests holds methods for each node subtest. This type allows passing
// dependencies for tests while still providing a convenient syntax when
// subtests are registered.
type NodeTests struct {
	app   http.Handler
	state *state.State
}

func newNode(t *testing.T, nodeID string) NodeTests {
	log := logger.NewNop()

	st, err := state.New(state.Config{
		NodeID:       nodeID,
		Genesis:      genesis.Default(),
		FetchRetries: 1,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}

	app := handlers.APIMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      log,
		State:    st,
		Evts:     events.New(),
	})

	return NodeTests{app: app, state: st}
}

func (nt NodeTests) do(method string, path string, body string) *httptest.ResponseRecorder {
	var r *http.Request
	switch body {
	case "":
		r = httptest.NewRequest(method, path, nil)
	default:
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	w := httptest.NewRecorder()
	nt.app.ServeHTTP(w, r)

	return w
}

// TestNode is the entry point for testing the node API.
func TestNode(t *testing.T) {
	nt := newNode(t, "node-a")

	t.Run("submitTransaction201", nt.submitTransaction201)
	t.Run("submitTransaction400", nt.submitTransaction400)
	t.Run("mine200", nt.mine200)
	t.Run("registerNodes", nt.registerNodes)
	t.Run("blockByIndex", nt.blockByIndex)
	t.Run("status200", nt.status200)
}

func (nt NodeTests) submitTransaction201(t *testing.T) {
	t.Log("Given the need to submit a transaction.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen using a valid transaction.", testID)
		{
			w := nt.do(http.MethodPost, "/v1/transactions/new", `{"sender":"alice","recipient":"bob","amount":5}`)
			if w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 201 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 201 for the response.", success, testID)

			var env response.Envelope[map[string]uint64]
			if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if env.Msg != "Transaction will be added to Block 2" || env.Data["index"] != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould be told the block the transaction goes in : %+v", failed, testID, env)
			}
			t.Logf("\t%s\tTest %d:\tShould be told the block the transaction goes in.", success, testID)
		}
	}
}

func (nt NodeTests) submitTransaction400(t *testing.T) {
	type table struct {
		name  string
		body  string
		field string
	}

	tt := []table{
		{name: "missing-amount", body: `{"sender":"alice","recipient":"bob"}`, field: "amount"},
		{name: "negative-amount", body: `{"sender":"alice","recipient":"bob","amount":-1}`, field: "amount"},
		{name: "missing-sender", body: `{"recipient":"bob","amount":1}`, field: "sender"},
		{name: "unknown-field", body: `{"sender":"alice","recipient":"bob","amount":1,"fee":1}`},
		{name: "not-json", body: `sender=alice`},
	}

	t.Log("Given the need to reject bad transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen using a %s transaction.", testID, tst.name)
				{
					w := nt.do(http.MethodPost, "/v1/transactions/new", tst.body)
					if w.Code != http.StatusBadRequest {
						t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 for the response : %v", failed, testID, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould receive a status code of 400 for the response.", success, testID)

					var got errs.Response
					if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
					}

					if tst.field != "" {
						if _, exists := got.Fields[tst.field]; !exists {
							t.Fatalf("\t%s\tTest %d:\tShould name the %s field : %+v", failed, testID, tst.field, got)
						}
						t.Logf("\t%s\tTest %d:\tShould name the %s field.", success, testID, tst.field)
					}
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func (nt NodeTests) mine200(t *testing.T) {
	t.Log("Given the need to mine a block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining with one pending transaction.", testID)
		{
			w := nt.do(http.MethodGet, "/v1/mine", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200 for the response.", success, testID)

			var env response.Envelope[database.Block]
			if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			block := env.Data
			if env.Msg != "New Block Forged" || block.Index != 2 || block.Proof != 72608 {
				t.Fatalf("\t%s\tTest %d:\tShould get back block 2 : %+v", failed, testID, env)
			}
			t.Logf("\t%s\tTest %d:\tShould get back block 2.", success, testID)

			if len(block.Transactions) != 2 || block.Transactions[1].Recipient != "node-a" {
				t.Fatalf("\t%s\tTest %d:\tShould hold the transaction and the reward : %+v", failed, testID, block.Transactions)
			}
			t.Logf("\t%s\tTest %d:\tShould hold the transaction and the reward.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen asking for the chain afterwards.", testID)
		{
			w := nt.do(http.MethodGet, "/v1/chain", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}

			var env response.Envelope[[]database.Block]
			if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if len(env.Data) != 2 || !database.IsValid(env.Data) {
				t.Fatalf("\t%s\tTest %d:\tShould get back a valid chain of two blocks : %d", failed, testID, len(env.Data))
			}
			t.Logf("\t%s\tTest %d:\tShould get back a valid chain of two blocks.", success, testID)
		}
	}
}

func (nt NodeTests) registerNodes(t *testing.T) {
	t.Log("Given the need to register peer nodes.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen registering two addresses for new locations.", testID)
		{
			w := nt.do(http.MethodPost, "/v1/nodes/register", `["http://10.0.0.1:5000/", "10.0.0.2:5000", "10.0.0.1:5000"]`)
			if w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 201 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 201 for the response.", success, testID)

			var env response.Envelope[[]peer.Peer]
			if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if len(env.Data) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould know two peers : %+v", failed, testID, env.Data)
			}
			t.Logf("\t%s\tTest %d:\tShould know two peers.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen registering bad input.", testID)
		{
			for _, body := range []string{`[]`, `["http://"]`, `{"nodes":["10.0.0.3:5000"]}`} {
				w := nt.do(http.MethodPost, "/v1/nodes/register", body)
				if w.Code != http.StatusBadRequest {
					t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 for %s : %v", failed, testID, body, w.Code)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400 for every bad input.", success, testID)
		}
	}
}

func (nt NodeTests) blockByIndex(t *testing.T) {
	type table struct {
		path   string
		status int
	}

	tt := []table{
		{path: "/v1/node/block/1", status: http.StatusOK},
		{path: "/v1/node/block/0", status: http.StatusNotFound},
		{path: "/v1/node/block/99", status: http.StatusNotFound},
		{path: "/v1/node/block/abc", status: http.StatusBadRequest},
	}

	t.Log("Given the need to look up blocks by index.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen asking for %s.", testID, tst.path)
			{
				w := nt.do(http.MethodGet, tst.path, "")
				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould receive a status code of %d for the response : %v", failed, testID, tst.status, w.Code)
				}
				t.Logf("\t%s\tTest %d:\tShould receive a status code of %d for the response.", success, testID, tst.status)
			}
		}
	}
}

func (nt NodeTests) status200(t *testing.T) {
	t.Log("Given the need to report the node status.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen asking for the status.", testID)
		{
			w := nt.do(http.MethodGet, "/v1/node/status", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}

			var env response.Envelope[peer.PeerStatus]
			if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			latest := nt.state.RetrieveLatestBlock()
			if env.Data.NodeID != "node-a" || env.Data.LatestBlockHash != latest.Hash() || env.Data.ChainLength != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould describe the node : %+v", failed, testID, env.Data)
			}
			t.Logf("\t%s\tTest %d:\tShould describe the node.", success, testID)
		}
	}
}

// TestResolve runs two nodes where one has a longer chain and checks that
// the other adopts it.
func TestResolve(t *testing.T) {
	long := newNode(t, "node-long")
	for i := 0; i < 2; i++ {
		if w := long.do(http.MethodGet, "/v1/mine", ""); w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould be able to mine on the long node : %v", failed, w.Code)
		}
	}

	srv := httptest.NewServer(long.app)
	defer srv.Close()

	short := newNode(t, "node-short")

	t.Log("Given the need to resolve conflicts between two nodes.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the peer holds a longer valid chain.", testID)
		{
			body, _ := json.Marshal([]string{srv.URL})
			if w := short.do(http.MethodPost, "/v1/nodes/register", string(body)); w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould be able to register the peer : %v", failed, testID, w.Code)
			}

			w := short.do(http.MethodGet, "/v1/nodes/resolve", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}

			var env response.Envelope[[]database.Block]
			if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if env.Msg != "Our chain was replaced" || len(env.Data) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould adopt the longer chain : %s %d", failed, testID, env.Msg, len(env.Data))
			}
			t.Logf("\t%s\tTest %d:\tShould adopt the longer chain.", success, testID)

			if short.state.RetrieveLatestBlock().Hash() != long.state.RetrieveLatestBlock().Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould end on the same latest block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould end on the same latest block.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen resolving again.", testID)
		{
			w := short.do(http.MethodGet, "/v1/nodes/resolve", "")

			var env response.Envelope[[]database.Block]
			if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&env); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if env.Msg != "Our chain is authoritative" {
				t.Fatalf("\t%s\tTest %d:\tShould keep its chain : %s", failed, testID, env.Msg)
			}
			t.Logf("\t%s\tTest %d:\tShould keep its chain.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen every peer is unreachable.", testID)
		{
			lonely := newNode(t, "node-lonely")
			lonely.state.AddKnownPeer(peer.New("127.0.0.1:1"))

			if w := lonely.do(http.MethodGet, "/v1/nodes/resolve", ""); w.Code != http.StatusBadGateway {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 502 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 502 for the response.", success, testID)
		}
	}
}
