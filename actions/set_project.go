package actions

import (
	"log/slog"

	"github.com/zhubert/cubensis-link/host"
)

// SetProjectWithHotReloadName is the action name under PluginName.
const SetProjectWithHotReloadName = "SetProjectWithHotReload"

// SetProjectWithHotReload points Cubensis at a project with hot reload on.
type SetProjectWithHotReload struct {
	client ProjectSetter
	editor host.Editor
	log    *slog.Logger
}

// NewSetProjectWithHotReload returns the action. editor may be nil, in which
// case only explicit paths are forwarded.
func NewSetProjectWithHotReload(client ProjectSetter, editor host.Editor, log *slog.Logger) *SetProjectWithHotReload {
	return &SetProjectWithHotReload{
		client: client,
		editor: editor,
		log:    log.With("command", CommandID(SetProjectWithHotReloadName)),
	}
}

func (a *SetProjectWithHotReload) Name() string { return SetProjectWithHotReloadName }

// Execute forwards args[0], or the active document when no path was given.
// With neither it does nothing.
func (a *SetProjectWithHotReload) Execute(args ...string) {
	path, ok := a.resolvePath(args)
	if !ok {
		a.log.Debug("no project path and no active document, ignoring")
		return
	}
	a.log.Info("setting project", "path", path)
	a.client.SetShaderProject(path, true)
}

func (a *SetProjectWithHotReload) resolvePath(args []string) (string, bool) {
	if len(args) > 0 && args[0] != "" {
		return args[0], true
	}
	if a.editor == nil {
		return "", false
	}
	path, ok := a.editor.ActiveDocumentPath()
	return path, ok && path != ""
}
