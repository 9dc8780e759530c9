package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhubert/cubensis-link/actions"
	"github.com/zhubert/cubensis-link/config"
	"github.com/zhubert/cubensis-link/extension"
	"github.com/zhubert/cubensis-link/host"
	"github.com/zhubert/cubensis-link/logger"
	"github.com/zhubert/cubensis-link/rpc"
)

var setProjectID = actions.CommandID(actions.SetProjectWithHotReloadName)

// activate loads the extension against an in-process registry and the
// terminal notifier.
func (o *rootOptions) activate(cmd *cobra.Command, editor host.Editor) (*extension.Extension, *host.Registry, error) {
	store, err := o.store(cmd)
	if err != nil {
		return nil, nil, err
	}
	reg := host.NewRegistry()
	ext, err := extension.Activate(&extension.ExtensionContext{
		Commands: reg,
		Notifier: host.NewTerminal(o.stderr),
		Editor:   editor,
		Config:   store,
	})
	if err != nil {
		return nil, nil, err
	}
	return ext, reg, nil
}

func waitOpen(cmd *cobra.Command, ext *extension.Extension, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	if err := ext.Client().WaitOpen(ctx); err != nil {
		return fmt.Errorf("cubensis not reachable: %w", err)
	}
	return nil
}

func newSetProjectCommand(o *rootOptions) *cobra.Command {
	var (
		active         string
		connectTimeout time.Duration
		wait           time.Duration
	)

	cmd := &cobra.Command{
		Use:   "set-project [path]",
		Short: "Load a project in Cubensis with hot reload",
		Long: `Load a project in Cubensis with hot reload enabled.

Without a path argument the --active document is used. With neither, nothing
is sent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ext, reg, err := o.activate(cmd, host.StaticEditor(active))
			if err != nil {
				return err
			}
			defer ext.Deactivate()

			if err := waitOpen(cmd, ext, connectTimeout); err != nil {
				return err
			}

			if err := reg.ExecuteCommand(setProjectID, args...); err != nil {
				return err
			}

			// Linger for status messages; responses are not correlated so
			// there is nothing specific to wait for.
			select {
			case <-time.After(wait):
			case <-ext.Client().Done():
			case <-cmd.Context().Done():
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&active, "active", "", "Path used when no argument is given")
	cmd.Flags().DurationVar(&connectTimeout, "connect-timeout", 5*time.Second, "How long to wait for the connection")
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Second, "How long to print status messages after sending")
	return cmd
}

func newAttachCommand(o *rootOptions) *cobra.Command {
	var (
		workspace      string
		connectTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Stay connected and send the active document on demand",
		Long: `Stay connected to Cubensis. The most recently written file under
--workspace is the active document. Each line read from stdin runs the
SetProjectWithHotReload command: a blank line sends the active document,
anything else is sent as the path. Exits on EOF or when the connection closes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := host.NewDocumentTracker(workspace, logger.Get())
			if err != nil {
				return err
			}
			defer tracker.Close()

			ext, reg, err := o.activate(cmd, tracker)
			if err != nil {
				return err
			}
			defer ext.Deactivate()

			if err := waitOpen(cmd, ext, connectTimeout); err != nil {
				return err
			}

			lines := make(chan string)
			stop := make(chan struct{})
			defer close(stop)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(o.stdin)
				for scanner.Scan() {
					select {
					case lines <- strings.TrimSpace(scanner.Text()):
					case <-stop:
						return
					}
				}
			}()

			for {
				select {
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					var cmdArgs []string
					if line != "" {
						cmdArgs = []string{line}
					}
					if err := reg.ExecuteCommand(setProjectID, cmdArgs...); err != nil {
						return err
					}
				case <-ext.Client().Done():
					return errors.New("connection to cubensis closed")
				case <-cmd.Context().Done():
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&workspace, "workspace", ".", "Directory whose files are tracked as the active document")
	cmd.Flags().DurationVar(&connectTimeout, "connect-timeout", 5*time.Second, "How long to wait for the connection")
	return cmd
}

func newServeCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a stand-in Cubensis RPC server for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := o.store(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(store, actions.PluginName)
			if err != nil {
				return err
			}

			srv := rpc.NewServer(func(req rpc.Request) rpc.Response {
				if sp, ok := req.(rpc.SetProjectRequest); ok {
					fmt.Fprintf(o.stdout, "SetProject %s (hot reload: %v)\n", sp.ProjectPath, sp.EnableHotReload)
				}
				return rpc.DefaultHandler(req)
			})
			fmt.Fprintf(o.stdout, "serving on %s\n", cfg.SocketURL())
			return srv.ListenAndServe(cmd.Context(), cfg.Address())
		},
	}
}

func newLogsCommand(o *rootOptions) *cobra.Command {
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Manage log files",
	}
	logs.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all cubensis-link log files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The open log file is among those removed.
			logger.Close()
			n, err := logger.ClearLogs()
			if err != nil {
				return err
			}
			fmt.Fprintf(o.stdout, "removed %d log file(s)\n", n)
			return nil
		},
	})
	return logs
}
