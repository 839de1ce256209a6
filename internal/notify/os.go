package notify

import (
	"context"
	"errors"
	"os/exec"

	"golang.org/x/time/rate"
)

// ErrUnsupportedPlatform is returned when the OS has no notification command.
var ErrUnsupportedPlatform = errors.New("desktop notifications are not supported on this platform")

// Default rate limit for desktop notifications.
const (
	DefaultRatePerSecond = 1.0
	DefaultBurst         = 5
)

// CommandRunner starts an external command without waiting for it to finish.
type CommandRunner func(name string, args ...string) error

// OSSender shows notifications through the platform's notification command
// (notify-send, osascript or PowerShell).
type OSSender struct {
	appName string
	limiter *rate.Limiter
	run     CommandRunner
}

// NewOSSender creates a desktop sender limited to ratePerSecond with burst.
func NewOSSender(appName string, ratePerSecond float64, burst int) *OSSender {
	if ratePerSecond <= 0 {
		ratePerSecond = DefaultRatePerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &OSSender{
		appName: appName,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		run:     startCommand,
	}
}

// WithRunner replaces the command runner. Used by tests.
func (s *OSSender) WithRunner(run CommandRunner) *OSSender {
	s.run = run
	return s
}

// Send implements Sender. It waits for the rate limiter, so a canceled ctx
// drops the notification.
func (s *OSSender) Send(ctx context.Context, n Notification) (string, error) {
	name, args, ok := osCommand(s.appName, n.Title, n.Body)
	if !ok {
		return "", ErrUnsupportedPlatform
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	id := ensureID(&n)
	if err := s.run(name, args...); err != nil {
		return "", err
	}
	return id, nil
}

func startCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...) //nolint:gosec // fixed binaries, arguments are passed without a shell
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
