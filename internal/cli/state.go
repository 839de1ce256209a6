package cli

import (
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/output"
	"github.com/berrywallet/berrysync/internal/store"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect persisted wallet state",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show block heights and wallet snapshots",
	Long: `Show the state the wallet managers persisted: the latest block height per
coin and a summary of every wallet snapshot.

Example:
  berrysync state show
  berrysync state show -o json`,
	RunE: runStateShow,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
}

func runStateShow(cmd *cobra.Command, _ []string) error {
	s, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	snap := s.Snapshot()
	return formatter.Emit(cmd.OutOrStdout(), snap, func(w io.Writer) error {
		if len(snap.Coins) == 0 && len(snap.Wallets) == 0 {
			outln(w, "No wallet state stored yet.")
			return nil
		}

		tbl := output.NewTable("COIN", "HEIGHT", "CONFIRMED", "UNCONFIRMED", "TXS")
		for _, key := range stateKeys(snap) {
			tbl.AddRow(stateRow(key, snap)...)
		}
		return tbl.Render(w)
	})
}

func stateKeys(snap store.State) []string {
	seen := make(map[string]struct{}, len(snap.Coins)+len(snap.Wallets))
	for k := range snap.Coins {
		seen[k] = struct{}{}
	}
	for k := range snap.Wallets {
		seen[k] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stateRow(key string, snap store.State) []string {
	row := []string{key, "-", "-", "-", "-"}

	if cs, ok := snap.Coins[key]; ok {
		row[1] = strconv.FormatInt(cs.BlockHeight, 10)
	}

	wd, ok := snap.Wallets[key]
	if !ok || wd == nil {
		return row
	}
	row[4] = strconv.Itoa(len(wd.Transactions))

	c, err := coin.ParseKey(key)
	if err != nil || wd.Balance == nil {
		return row
	}
	row[2] = c.FormatAmount(wd.Balance.Confirmed)
	row[3] = c.FormatAmount(wd.Balance.Unconfirmed)
	return row
}
