package cmd

import (
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine the next block on the node",
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) error {
	spinner, _ := pterm.DefaultSpinner.Start("mining")

	env, err := call[database.Block](http.MethodGet, "/v1/mine", nil)
	if err != nil {
		spinner.Fail(err)
		return err
	}

	block := env.Data
	spinner.Success(env.Msg)

	return renderBlocks([]database.Block{block})
}
