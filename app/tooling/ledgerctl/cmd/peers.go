package cmd

import (
	"net/http"
	"strconv"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register address...",
	Short: "Register peer nodes with the node",
	Args:  cobra.MinimumNArgs(1),
	RunE:  registerRun,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Have the node adopt the longest valid chain of its peers",
	RunE:  resolveRun,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of the node and its peers",
	RunE:  statusRun,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(statusCmd)
}

func registerRun(cmd *cobra.Command, args []string) error {
	env, err := call[[]peer.Peer](http.MethodPost, "/v1/nodes/register", args)
	if err != nil {
		return err
	}

	pterm.Success.Println(env.Msg)
	return renderPeers(env.Data)
}

func resolveRun(cmd *cobra.Command, args []string) error {
	env, err := call[[]database.Block](http.MethodGet, "/v1/nodes/resolve", nil)
	if err != nil {
		return err
	}

	pterm.Info.Printfln("%s: %d blocks", env.Msg, len(env.Data))
	return nil
}

func statusRun(cmd *cobra.Command, args []string) error {
	env, err := call[peer.PeerStatus](http.MethodGet, "/v1/node/status", nil)
	if err != nil {
		return err
	}

	status := env.Data
	data := pterm.TableData{
		{"Node", status.NodeID},
		{"Blocks", strconv.Itoa(status.ChainLength)},
		{"Latest", status.LatestBlockHash},
		{"Pending", strconv.Itoa(status.PendingTxs)},
	}
	if err := pterm.DefaultTable.WithData(data).Render(); err != nil {
		return err
	}

	return renderPeers(status.KnownPeers)
}

func renderPeers(peers []peer.Peer) error {
	if len(peers) == 0 {
		pterm.Info.Println("no known peers")
		return nil
	}

	data := pterm.TableData{{"Peer"}}
	for _, pr := range peers {
		data = append(data, []string{pr.Host})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
