package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/zhubert/cubensis-link/actions"
	"github.com/zhubert/cubensis-link/config"
	"github.com/zhubert/cubensis-link/logger"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	debug      bool
	configPath string
	host       string
	port       int

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	o := &rootOptions{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "cubensis-link",
		Short: "Point a running Cubensis renderer at a shader project",
		Long: `cubensis-link connects to the Cubensis RPC socket and asks it to load
a project with hot reload enabled. Status messages from Cubensis are printed
as they arrive.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, err := logger.DefaultLogPath()
			if err != nil {
				return err
			}
			if err := logger.Init(path); err != nil {
				return err
			}
			logger.SetDebug(o.debug)
			return nil
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nPlatform: %s/%s\n",
		BuildTime, runtime.GOOS, runtime.GOARCH))

	root.PersistentFlags().BoolVar(&o.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "Config file path (default is the cubensis-link config.yaml)")
	root.PersistentFlags().StringVar(&o.host, "host", "", "Cubensis host (overrides config)")
	root.PersistentFlags().IntVar(&o.port, "port", 0, "Cubensis port (overrides config)")

	root.AddCommand(
		newSetProjectCommand(o),
		newAttachCommand(o),
		newServeCommand(o),
		newLogsCommand(o),
	)
	return root
}

// store layers changed flags over the config file.
func (o *rootOptions) store(cmd *cobra.Command) (config.Store, error) {
	var file *config.FileStore
	var err error
	if o.configPath != "" {
		file, err = config.LoadFile(o.configPath)
	} else {
		file, err = config.LoadDefaultFile()
	}
	if err != nil {
		return nil, err
	}

	flags := config.MapStore{}
	if cmd.Flags().Changed("host") {
		flags.Set(actions.PluginName, "host", o.host)
	}
	if cmd.Flags().Changed("port") {
		flags.Set(actions.PluginName, "port", o.port)
	}
	return config.Layers{flags, file}, nil
}
