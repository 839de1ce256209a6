package cli

import (
	"io"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/notify"
	"github.com/berrywallet/berrysync/internal/output"
	"github.com/berrywallet/berrysync/internal/provider"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Check transaction notifications",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a sample incoming transaction notification",
	Long: `Send the notification shown for an incoming transaction through the
configured backend, to check that notifications reach the desktop.

Example:
  berrysync notify test
  berrysync notify test --coin ETH`,
	RunE: runNotifyTest,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var notifyCoin string

// notifyTimeout bounds the wait for the rate limiter and the backend.
const notifyTimeout = 10 * time.Second

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)

	notifyTestCmd.Flags().StringVar(&notifyCoin, "coin", "BTC", "coin key of the sample transaction")
}

func runNotifyTest(cmd *cobra.Command, _ []string) error {
	sender := newNotifier(cfg, logger)
	if sender == nil {
		return walleterr.WithSuggestion(
			walleterr.ErrNotSupported,
			"notifications are disabled; set notifications.enabled: true",
		)
	}

	c, err := coin.ParseKey(notifyCoin)
	if err != nil {
		return walleterr.WithCause(walleterr.ErrUnsupportedCoin, err)
	}

	// One whole coin.
	amount := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.Decimals())), nil)
	n := notify.NewTransactionNotification(c, &provider.WalletTransaction{TxID: "test"}, amount)

	ctx, cancel := contextWithTimeout(cmd, notifyTimeout)
	defer cancel()

	id, err := sender.Send(ctx, n)
	if err != nil {
		return walleterr.Wrap(err, "sending notification")
	}

	result := map[string]string{"id": id, "title": n.Title, "body": n.Body}
	return formatter.Emit(cmd.OutOrStdout(), result, func(w io.Writer) error {
		output.Success(w, "Notification %s sent: %s", id, n.Body)
		return nil
	})
}
