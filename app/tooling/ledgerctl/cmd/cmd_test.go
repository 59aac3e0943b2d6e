package cmd

import (
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/logger"
	"github.com/pterm/pterm"
)

// Success and failed markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Commands(t *testing.T) {
	pterm.DisableOutput()
	defer pterm.EnableOutput()

	st, err := state.New(state.Config{
		NodeID:  "cli",
		Genesis: genesis.Default(),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}

	srv := httptest.NewServer(handlers.APIMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      logger.NewNop(),
		State:    st,
		Evts:     events.New(),
	}))
	defer srv.Close()

	type table struct {
		name string
		args []string
		fail bool
	}

	tt := []table{
		{name: "send", args: []string{"send", "-s", "alice", "-r", "bob", "-a", "5"}},
		{name: "send-negative", args: []string{"send", "-s", "alice", "-r", "bob", "-a", "-1"}, fail: true},
		{name: "pending", args: []string{"pending"}},
		{name: "mine", args: []string{"mine"}},
		{name: "chain", args: []string{"chain"}},
		{name: "register", args: []string{"register", "10.0.0.1:5000", "http://10.0.0.2:5000/"}},
		{name: "register-bad", args: []string{"register", "http://"}, fail: true},
		{name: "status", args: []string{"status"}},
	}

	t.Log("Given the need to drive a node from the command line.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen running %v.", testID, tst.args)
			{
				rootCmd.SetArgs(append([]string{"--url", srv.URL}, tst.args...))
				err := rootCmd.Execute()

				if tst.fail != (err != nil) {
					t.Fatalf("\t%s\tTest %d:\tShould fail %v, got %v.", failed, testID, tst.fail, err)
				}
				t.Logf("\t%s\tTest %d:\tShould fail %v.", success, testID, tst.fail)
			}
		}
	}

	chain := st.RetrieveChain()
	if len(chain) != 2 || len(chain[1].Transactions) != 2 {
		t.Fatalf("\t%s\tShould have mined the sent transaction into block 2.", failed)
	}
	t.Logf("\t%s\tShould have mined the sent transaction into block 2.", success)

	if n := len(st.RetrieveKnownPeers()); n != 2 {
		t.Fatalf("\t%s\tShould have registered two peers, got %d.", failed, n)
	}
	t.Logf("\t%s\tShould have registered two peers.", success)
}
