// Package handlers implements the four advisory handlers (buying,
// planning, assess, repaying). Each handler derives the user's snapshot,
// builds its own view of the finances, consults the advisory model and
// returns a HandlerResponse with an agent tag and machine-readable
// metadata. Handlers never panic outward; the router converts any
// returned error into a labeled failure stub.
package handlers

import (
	"context"

	"go.uber.org/zap"

	"myve/internal/advisory"
	"myve/internal/snapshot"
	"myve/internal/types"
)

// SnapshotSource derives the financial snapshot a handler reasons over.
type SnapshotSource interface {
	Derive(ctx context.Context, userID string) *snapshot.Result
}

// Handler answers one intent.
type Handler interface {
	Name() string
	Run(ctx context.Context, prompt, userID string, dataKeys []string) (types.HandlerResponse, error)
}

// Deps are the shared collaborators injected into every handler.
type Deps struct {
	Advisory  advisory.Client
	Snapshots SnapshotSource
	Log       *zap.Logger
}

func (d Deps) logger(name string) *zap.Logger {
	if d.Log == nil {
		return zap.NewNop().Named(name)
	}
	return d.Log.Named(name)
}

// All returns the handler set keyed by agent name.
func All(deps Deps) map[string]Handler {
	return map[string]Handler{
		"buying":   NewBuying(deps),
		"planning": NewPlanning(deps),
		"assess":   NewAssess(deps),
		"repaying": NewRepaying(deps),
	}
}
