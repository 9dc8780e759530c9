// Package host describes the capabilities cubensis-link needs from whatever
// program embeds it (command registration, user notifications, and the
// currently focused document) and provides in-process implementations of them
// for the terminal host.
package host

import "errors"

var (
	// ErrCommandExists is returned when an id is registered twice without the
	// first registration being disposed.
	ErrCommandExists = errors.New("command already registered")

	// ErrUnknownCommand is returned when executing an id nobody registered.
	ErrUnknownCommand = errors.New("unknown command")
)

// Disposable releases something acquired from the host.
type Disposable interface {
	Dispose()
}

// DisposeFunc adapts a function to Disposable.
type DisposeFunc func()

// Dispose calls f.
func (f DisposeFunc) Dispose() { f() }

// CommandHandler runs a registered command. args are the optional arguments
// supplied by the invoker.
type CommandHandler func(args ...string)

// CommandRegistry registers user-invocable commands.
type CommandRegistry interface {
	RegisterCommand(id string, handler CommandHandler) (Disposable, error)
}

// Notifier surfaces messages to the user at three severities.
type Notifier interface {
	Info(message string)
	Warn(message string)
	Error(message string)
}

// Editor reports the filesystem path of the focused document, if any.
type Editor interface {
	ActiveDocumentPath() (string, bool)
}

// StaticEditor is an Editor whose active document never changes. The empty
// string means no document is open.
type StaticEditor string

// ActiveDocumentPath implements Editor.
func (e StaticEditor) ActiveDocumentPath() (string, bool) {
	return string(e), e != ""
}
