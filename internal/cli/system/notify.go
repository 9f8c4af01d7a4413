package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/control"
)

type NotifyCmd struct {
	Action NotifyActionCmd `cmd:"" help:"Apply a notification action through the running daemon."`
}

// NotifyActionCmd is how the tray app, or a user, answers a delivered
// notification: habitual notify action habit.<id> action.rating.enter 4
type NotifyActionCmd struct {
	RequestID string `arg:"" help:"Request id of the delivered notification."`
	Action    string `arg:"" help:"Action id, e.g. action.boolean.complete."`
	Input     string `arg:"" optional:"" help:"Text input for rating and numeric actions."`
}

func (c *NotifyActionCmd) Run(ctx *cli.Context) error {
	if ctx.Daemon == nil {
		return control.ErrNotRunning
	}
	err := ctx.Daemon.Action(ctx.Context(), control.ActionRequest{
		RequestID: c.RequestID,
		Action:    c.Action,
		Input:     c.Input,
	})
	if errors.Is(err, control.ErrNotRunning) {
		return fmt.Errorf("%w; start it with 'habitual serve'", err)
	}
	if err != nil {
		return err
	}
	ctx.Printf("Applied %s to %s\n", c.Action, c.RequestID)
	return nil
}
