// Package extension is the entry point a host calls to load and unload
// cubensis-link.
package extension

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/zhubert/cubensis-link/actions"
	"github.com/zhubert/cubensis-link/config"
	"github.com/zhubert/cubensis-link/host"
	"github.com/zhubert/cubensis-link/logger"
	"github.com/zhubert/cubensis-link/rpc"
)

// ExtensionContext carries the host capabilities into Activate. Subscriptions
// collects everything Deactivate must release.
type ExtensionContext struct {
	Commands host.CommandRegistry
	Notifier host.Notifier
	Editor   host.Editor
	Config   config.Store

	// Log overrides the session logger. Tests only.
	Log *slog.Logger

	Subscriptions []host.Disposable
}

// Extension is one activation.
type Extension struct {
	sessionID  string
	ctx        *ExtensionContext
	collection *actions.Collection
	log        *slog.Logger

	deactivateOnce sync.Once
}

// Activate reads configuration, dials Cubensis and registers the commands.
// It does not wait for the connection.
func Activate(ctx *ExtensionContext) (*Extension, error) {
	if ctx.Commands == nil || ctx.Notifier == nil {
		return nil, errors.New("extension context needs a command registry and a notifier")
	}

	cfg, err := config.Load(ctx.Config, actions.PluginName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", actions.PluginName, err)
	}

	sessionID := uuid.New().String()
	log := ctx.Log
	if log == nil {
		log = logger.WithSession(sessionID)
	} else {
		log = log.With("sessionID", sessionID)
	}
	log.Info("cubensis link established", "address", cfg.Address())

	collection := actions.NewCollection(cfg, ctx.Notifier, ctx.Editor, log)
	subs, err := collection.Register(ctx.Commands)
	if err != nil {
		return nil, err
	}
	ctx.Subscriptions = append(ctx.Subscriptions, subs...)

	return &Extension{
		sessionID:  sessionID,
		ctx:        ctx,
		collection: collection,
		log:        log,
	}, nil
}

// SessionID identifies this activation in logs.
func (e *Extension) SessionID() string {
	return e.sessionID
}

// Client returns the activation's Cubensis connection.
func (e *Extension) Client() *rpc.Client {
	return e.collection.Client()
}

// Deactivate releases every subscription, newest first. Only the first call
// has any effect.
func (e *Extension) Deactivate() {
	e.deactivateOnce.Do(func() {
		subs := e.ctx.Subscriptions
		e.ctx.Subscriptions = nil
		for _, s := range slices.Backward(subs) {
			s.Dispose()
		}
		e.log.Info("deactivated", "released", len(subs))
	})
}
