// Package notify delivers user-facing notifications about wallet activity.
package notify

import (
	"context"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/provider"
)

// Notification is one message shown to the user.
type Notification struct {
	ID    string
	Title string
	Body  string

	// Optional context for senders that record it.
	CoinKey string
	TxID    string
}

// Sender delivers notifications. Send returns the notification ID.
type Sender interface {
	Send(ctx context.Context, n Notification) (string, error)
}

// NewTransactionNotification describes an incoming transaction that credits
// amount (smallest units) to the wallet.
func NewTransactionNotification(c coin.Coin, tx *provider.WalletTransaction, amount *big.Int) Notification {
	n := Notification{
		Title:   fmt.Sprintf("Incoming %s transaction", c.Unit()),
		Body:    fmt.Sprintf("+%s %s received", c.FormatAmount(amount), c.Unit()),
		CoinKey: c.Key(),
	}
	if tx != nil {
		n.TxID = tx.TxID
	}
	return n
}

func ensureID(n *Notification) string {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return n.ID
}

// LogWriter is the logging surface LogSender writes to.
type LogWriter interface {
	Info(format string, args ...any)
}

// LogSender writes notifications to a log instead of the desktop.
type LogSender struct {
	log LogWriter
}

// NewLogSender creates a sender that logs every notification.
func NewLogSender(log LogWriter) *LogSender {
	return &LogSender{log: log}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, n Notification) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := ensureID(&n)
	if s.log != nil {
		s.log.Info("notification %s: %s: %s", id, n.Title, n.Body)
	}
	return id, nil
}
