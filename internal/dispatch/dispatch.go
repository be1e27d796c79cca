// Package dispatch routes keyboard commands relayed by the extension to the
// grouping engine and the navigation controller.
package dispatch

import (
	"context"

	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/engine"
	"github.com/lotas/tabgruppen/internal/nav"
	"github.com/lotas/tabgruppen/internal/rules"
)

// Command names delivered by the extension.
const (
	CmdCycleGroups       = "cycle-tab-groups"
	CmdNavigateWithin    = "navigate-within-group"
	CmdMoveUncategorized = "move-uncategorized"
	CmdAutoGroup         = "auto-group"
)

// Dispatcher holds the operations the extension can trigger. MoveTarget is
// the group the move-uncategorized command migrates into; empty means the
// command is a logged no-op.
type Dispatcher struct {
	Engine     *engine.Engine
	Nav        *nav.Controller
	Rules      *rules.Store
	MoveTarget string
}

// Handle runs one named command. Unknown commands are logged and ignored;
// operation errors are logged and returned for the caller's surface (TUI
// status line, CLI exit code).
func (d *Dispatcher) Handle(ctx context.Context, command string) error {
	applog.Info("dispatch", "command", command)

	switch command {
	case CmdCycleGroups:
		_, err := d.Nav.Cycle(ctx)
		if err != nil {
			applog.Error("dispatch.cycle", err)
		}
		return err
	case CmdNavigateWithin:
		_, err := d.Nav.NextInGroup(ctx)
		if err != nil {
			applog.Error("dispatch.navigate", err)
		}
		return err
	case CmdAutoGroup:
		_, err := d.Engine.AutoGroup(ctx, "command")
		if err != nil {
			applog.Error("dispatch.autogroup", err)
		}
		return err
	case CmdMoveUncategorized:
		if d.MoveTarget == "" {
			applog.Info("dispatch.move.skipped", "reason", "no move_target configured")
			return nil
		}
		_, err := d.Engine.MoveUncategorized(ctx, d.MoveTarget, "command")
		if err != nil {
			applog.Error("dispatch.move", err)
		}
		return err
	default:
		applog.Info("dispatch.unknown", "command", command)
		return nil
	}
}

// HandleInstalled seeds the rule store on the extension's install signal.
// Initialization is idempotent, so repeated installs are harmless.
func (d *Dispatcher) HandleInstalled() error {
	if err := d.Rules.Initialize(); err != nil {
		applog.Error("dispatch.installed", err)
		return err
	}
	return nil
}
