package notifier

import (
	"context"
	"fmt"
	"io"

	"pr-notifier/pkg/models"
)

// ConsoleNotifier prints notifications, one line each
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a console notifier writing to out
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (c *ConsoleNotifier) Notify(_ context.Context, verdict models.Verdict) error {
	if _, err := fmt.Fprintln(c.out, verdict.Message()); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}
