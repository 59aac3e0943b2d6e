package cmd

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain held by the node",
	RunE:  chainRun,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Print the transactions waiting for the next block",
	RunE:  pendingRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(pendingCmd)
}

func chainRun(cmd *cobra.Command, args []string) error {
	env, err := call[[]database.Block](http.MethodGet, "/v1/chain", nil)
	if err != nil {
		return err
	}

	if err := renderBlocks(env.Data); err != nil {
		return err
	}

	if err := database.ValidateChain(env.Data, nil); err != nil {
		pterm.Warning.Println(err)
		return nil
	}

	pterm.Success.Printfln("%d blocks, chain is valid", len(env.Data))
	return nil
}

func pendingRun(cmd *cobra.Command, args []string) error {
	env, err := call[[]database.Tx](http.MethodGet, "/v1/transactions/pending", nil)
	if err != nil {
		return err
	}

	if len(env.Data) == 0 {
		pterm.Info.Println("no pending transactions")
		return nil
	}

	return renderTxs(env.Data)
}

// =============================================================================

func renderBlocks(blocks []database.Block) error {
	data := pterm.TableData{
		{"Index", "Time", "Txs", "Proof", "Hash", "Previous"},
	}

	for _, block := range blocks {
		sec := int64(block.Timestamp)
		ts := time.Unix(sec, 0).UTC().Format(time.RFC3339)

		data = append(data, []string{
			strconv.FormatUint(block.Index, 10),
			ts,
			strconv.Itoa(len(block.Transactions)),
			strconv.FormatUint(block.Proof, 10),
			short(block.Hash()),
			short(block.PreviousHash),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func renderTxs(trans []database.Tx) error {
	data := pterm.TableData{
		{"Sender", "Recipient", "Amount"},
	}

	for _, tx := range trans {
		data = append(data, []string{tx.Sender, tx.Recipient, fmt.Sprint(tx.Amount)})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func short(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}
