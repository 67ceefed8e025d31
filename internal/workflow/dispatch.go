package workflow

import (
	"context"
	"fmt"
)

// Action names a user interaction.
type Action string

const (
	ActionSelect    Action = "select"
	ActionSetFolder Action = "set-folder"
	ActionProcess   Action = "process"
	ActionDownload  Action = "download"
	ActionUnload    Action = "unload"
)

// Event carries the arguments of an action. Only the fields the action
// uses need to be set.
type Event struct {
	Action Action
	Files  []File
	Index  int
	Folder string
	Dir    string
}

// Result is what an action leaves behind.
type Result struct {
	Snapshot Snapshot
	Download *Download
}

// Handler performs one action.
type Handler func(ctx context.Context, ev Event) (Result, error)

// Actions maps every action to the controller method that handles it.
func (c *Controller) Actions() map[Action]Handler {
	return map[Action]Handler{
		ActionSelect: func(_ context.Context, ev Event) (Result, error) {
			err := c.Select(ev.Files)
			return Result{Snapshot: c.Snapshot()}, err
		},
		ActionSetFolder: func(_ context.Context, ev Event) (Result, error) {
			err := c.SetFolder(ev.Index, ev.Folder)
			return Result{Snapshot: c.Snapshot()}, err
		},
		ActionProcess: func(ctx context.Context, _ Event) (Result, error) {
			err := c.Process(ctx)
			return Result{Snapshot: c.Snapshot()}, err
		},
		ActionDownload: func(_ context.Context, ev Event) (Result, error) {
			d, err := c.Download(ev.Dir)
			if err != nil {
				return Result{Snapshot: c.Snapshot()}, err
			}
			return Result{Snapshot: c.Snapshot(), Download: &d}, nil
		},
		ActionUnload: func(_ context.Context, _ Event) (Result, error) {
			err := c.Close()
			return Result{Snapshot: c.Snapshot()}, err
		},
	}
}

// Dispatch runs the handler registered for ev.Action.
func (c *Controller) Dispatch(ctx context.Context, ev Event) (Result, error) {
	h, ok := c.Actions()[ev.Action]
	if !ok {
		return Result{}, fmt.Errorf("unknown action %q", ev.Action)
	}
	return h(ctx, ev)
}
