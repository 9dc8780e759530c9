// Package actions contains the user-invocable commands cubensis-link
// contributes to its host.
package actions

import (
	"fmt"
	"log/slog"

	"github.com/zhubert/cubensis-link/config"
	"github.com/zhubert/cubensis-link/host"
	"github.com/zhubert/cubensis-link/rpc"
)

// PluginName namespaces command ids and configuration.
const PluginName = "cubensis-link"

// CommandID returns the host-visible id of the action called name.
func CommandID(name string) string {
	return PluginName + "." + name
}

// ProjectSetter forwards a project path to Cubensis. *rpc.Client satisfies it.
type ProjectSetter interface {
	SetShaderProject(path string, enableHotReload bool)
}

// Action is one command contributed to the host.
type Action interface {
	Name() string
	Execute(args ...string)
}

// Collection owns the Cubensis client and every action bound to it.
type Collection struct {
	client  *rpc.Client
	actions []Action
	log     *slog.Logger
}

// NewCollection dials Cubensis at cfg and builds the actions that use the
// connection. The dial happens in the background.
func NewCollection(cfg config.Configuration, notifier host.Notifier, editor host.Editor, log *slog.Logger) *Collection {
	client := rpc.Dial(cfg, notifier, rpc.WithLogger(log.With("component", "rpc-client")))
	return &Collection{
		client: client,
		actions: []Action{
			NewSetProjectWithHotReload(client, editor, log),
		},
		log: log,
	}
}

// Client returns the collection's connection.
func (c *Collection) Client() *rpc.Client {
	return c.client
}

// Actions returns the actions in registration order.
func (c *Collection) Actions() []Action {
	return c.actions
}

// Register registers every action with reg and returns the disposables,
// followed by the client so that disposing everything also closes the
// connection. On failure, whatever was already registered is disposed and
// the client is closed.
func (c *Collection) Register(reg host.CommandRegistry) ([]host.Disposable, error) {
	subs := make([]host.Disposable, 0, len(c.actions)+1)
	for _, a := range c.actions {
		id := CommandID(a.Name())
		d, err := reg.RegisterCommand(id, a.Execute)
		if err != nil {
			for _, s := range subs {
				s.Dispose()
			}
			c.client.Close()
			return nil, fmt.Errorf("failed to register %s: %w", id, err)
		}
		c.log.Debug("command registered", "command", id)
		subs = append(subs, d)
	}
	return append(subs, c.client), nil
}
