// hostsh runs commands on the host or inside the current sandbox.
//
// Usage:
//
//	hostsh detect                          Print whether we are sandboxed
//	hostsh host -- uname -a                Run on the host (via flatpak-spawn --host when sandboxed)
//	hostsh sandbox --quiet -- ls /app      Run inside the current environment
//	hostsh batch -f commands.yaml          Run several host commands in the background
//	hostsh version
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mfateev/hostsh/internal/config"
	"github.com/mfateev/hostsh/internal/logging"
	"github.com/mfateev/hostsh/internal/runner"
	"github.com/mfateev/hostsh/internal/sandbox"
	"github.com/mfateev/hostsh/internal/version"
)

// app carries the streams and environment the commands run against.
type app struct {
	stdout io.Writer
	stderr io.Writer
	lookup sandbox.LookupFunc

	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr, lookup: os.LookupEnv}
	err := a.rootCmd().Execute()
	if err == nil {
		return
	}

	var failed *runner.CommandFailedError
	if errors.As(err, &failed) && failed.ExitStatus > 0 {
		os.Exit(failed.ExitStatus)
	}
	log.Printf("error: %v", err)
	os.Exit(1)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hostsh",
		Short:         "Run commands on the host from inside a Flatpak sandbox",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "Config file (YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text, json, auto")

	root.AddCommand(
		a.detectCmd(),
		a.hostCmd(),
		a.sandboxCmd(),
		a.batchCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads config and builds a runner whose background tasks go through
// spawner (nil for the default).
func (a *app) setup(spawner runner.Spawner) (*config.Config, *runner.Runner, error) {
	cfg, err := config.Load(a.configPath, a.lookup)
	if err != nil {
		return nil, nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
	r := runner.New(runner.Config{
		Sandboxed:    cfg.Sandboxed(a.lookup),
		BridgePrefix: cfg.Bridge.Prefix,
		Logger:       logger,
		Diagnostics:  a.stderr,
		Spawner:      spawner,
	})
	return cfg, r, nil
}

func runOptions(cfg *config.Config, dir string) []runner.Option {
	var opts []runner.Option
	if dir != "" {
		opts = append(opts, runner.WithDir(dir))
	}
	if cfg.Env != nil {
		opts = append(opts, runner.WithEnvPolicy(cfg.Env))
	}
	return opts
}

func (a *app) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Print whether hostsh is running inside a sandbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, r, err := a.setup(nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, r.IsSandboxed())
			return nil
		},
	}
}

func (a *app) hostCmd() *cobra.Command {
	var captureStderr, dryRun bool
	var dir string

	cmd := &cobra.Command{
		Use:   "host [flags] -- <command> [args...]",
		Short: "Run a command on the host",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, r, err := a.setup(nil)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(a.stdout, "%q\n", r.HostCommand(args))
				return nil
			}
			out, err := r.RunOnHost(cmd.Context(), args, captureStderr, runOptions(cfg, dir)...)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&captureStderr, "capture-stderr", false, "Fold stderr into the output instead of failing")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command that would run and exit")
	cmd.Flags().StringVar(&dir, "dir", "", "Working directory")
	return cmd
}

func (a *app) sandboxCmd() *cobra.Command {
	var captureStderr, quiet bool
	var dir string

	cmd := &cobra.Command{
		Use:   "sandbox [flags] -- <command> [args...]",
		Short: "Run a command in the current environment without host bridging",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, r, err := a.setup(nil)
			if err != nil {
				return err
			}
			out, err := r.RunInSandbox(cmd.Context(), args, captureStderr, quiet, runOptions(cfg, dir)...)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&captureStderr, "capture-stderr", false, "Fold stderr into the output instead of failing")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print stderr of a failed command")
	cmd.Flags().StringVar(&dir, "dir", "", "Working directory")
	return cmd
}

// batchFile is the YAML layout read by "hostsh batch".
type batchFile struct {
	Commands [][]string `yaml:"commands"`
}

func loadBatch(path string) (*batchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var b batchFile
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	for i, c := range b.Commands {
		if len(c) == 0 {
			return nil, fmt.Errorf("batch command %d is empty", i)
		}
	}
	return &b, nil
}

func (a *app) batchCmd() *cobra.Command {
	var file string
	var captureStderr bool

	cmd := &cobra.Command{
		Use:   "batch -f <file>",
		Short: "Run host commands from a YAML file in the background and print each result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := loadBatch(file)
			if err != nil {
				return err
			}
			group := &runner.GroupSpawner{}
			_, r, err := a.setup(group)
			if err != nil {
				return err
			}

			var mu sync.Mutex
			for _, c := range b.Commands {
				r.RunOnHostThreaded(c, func(output string) {
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintln(a.stdout, output)
				}, captureStderr)
			}
			group.Wait()
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a commands list")
	cmd.Flags().BoolVar(&captureStderr, "capture-stderr", false, "Fold stderr into each output instead of failing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hostsh version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(a.stdout, version.String())
		},
	}
}
