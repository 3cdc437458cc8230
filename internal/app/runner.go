package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ggonzalez94/casper-cli/internal/cache"
	"github.com/ggonzalez94/casper-cli/internal/config"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/journal"
	"github.com/ggonzalez94/casper-cli/internal/logging"
	"github.com/ggonzalez94/casper-cli/internal/model"
	"github.com/ggonzalez94/casper-cli/internal/out"
	"github.com/ggonzalez94/casper-cli/internal/policy"
	"github.com/ggonzalez94/casper-cli/internal/schema"
	"github.com/ggonzalez94/casper-cli/internal/version"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner    *Runner
	flags     config.GlobalFlags
	verbosity int
	settings  config.Settings
	log       *zap.Logger
	root      *cobra.Command
	cache     *cache.Store
	journal   *journal.Store

	lastCommand  string
	lastWarnings []string
	lastNode     *model.NodeStatus
}

func (r *Runner) Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	state := &runtimeState{runner: r, log: zap.NewNop()}
	root := state.newRootCommand()
	state.root = root
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := normalizeRunError(root.ExecuteContext(ctx))
	defer state.close()
	if err == nil {
		return 0
	}
	state.renderError("", err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.journal != nil {
		_ = s.journal.Close()
	}
	_ = s.log.Sync()
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Build, sign and send Casper transactions and deploys",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeInvalidArgument, "load configuration", err)
			}
			if s.verbosity > 0 {
				settings.Verbosity = s.verbosity
			}
			s.settings = settings
			s.log = logging.New(s.runner.stderr, settings.Verbosity)

			path := trimRootPath(cmd.CommandPath())
			s.lastCommand = path
			s.log.Debug("configuration resolved",
				zap.String("command", path),
				zap.String("node_address", settings.NodeAddress),
				zap.Duration("timeout", settings.Timeout),
				zap.Int("retries", settings.Retries),
				zap.Bool("cache", settings.CacheEnabled),
				zap.Bool("journal", settings.JournalEnabled),
			)
			return policy.CheckCommandAllowed(settings.EnableCommands, path)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeInvalidArgument, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text instead of JSON")
	cmd.PersistentFlags().StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.Envelope, "envelope", false, "Wrap output in a {success,data,error,meta} envelope")
	cmd.PersistentFlags().StringVar(&s.flags.EnableCommands, "enable-commands", "", "Allowlist command paths (comma-separated, trailing * matches a prefix)")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Node request timeout")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "Transport retries on network errors")
	cmd.PersistentFlags().BoolVar(&s.flags.NoCache, "no-cache", false, "Disable block cache reads and writes")
	cmd.PersistentFlags().BoolVar(&s.flags.NoJournal, "no-journal", false, "Do not record submissions")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	cmd.PersistentFlags().CountVarP(&s.verbosity, "verbose", "v", "Log RPC traffic to stderr (-v abbreviated, -vv full)")

	cmd.AddCommand(s.newTransactionCommand("make-transaction", false))
	cmd.AddCommand(s.newTransactionCommand("put-transaction", true))
	cmd.AddCommand(s.supersede(s.newDeployCommand("make-deploy", false), "make-transaction"))
	cmd.AddCommand(s.supersede(s.newDeployCommand("put-deploy", true), "put-transaction"))
	cmd.AddCommand(s.newSendCommand("send-transaction"))
	cmd.AddCommand(s.newSendCommand("send-deploy"))
	cmd.AddCommand(s.newSignCommand("sign-transaction"))
	cmd.AddCommand(s.newSignCommand("sign-deploy"))
	cmd.AddCommand(s.newListTransactionsCommand())
	cmd.AddCommand(s.newGetBlockCommand())
	cmd.AddCommand(s.newGetBalanceCommand())
	cmd.AddCommand(s.newKeygenCommand())
	cmd.AddCommand(s.newHistoryCommand())
	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(s.newVersionCommand())

	return cmd
}

func (s *runtimeState) newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !s.settings.Envelope {
				line := version.CLIVersion
				if long {
					line = version.Long()
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), line)
				return err
			}
			info := model.VersionInfo{Name: version.CLIName, Version: version.CLIVersion}
			if long {
				info.Commit, info.BuildDate = version.Commit, version.BuildDate
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), info, cacheMetaBypass())
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.Build(s.root, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, cacheMetaBypass())
		},
	}
}

// warn records a warning for the envelope, or prints it to stderr when no envelope is rendered.
func (s *runtimeState) warn(msg string) {
	s.lastWarnings = append(s.lastWarnings, msg)
	if !s.settings.Envelope {
		_, _ = fmt.Fprintf(s.runner.stderr, "warning: %s\n", msg)
	}
}

func (s *runtimeState) emitSuccess(commandPath string, data any, cacheStatus model.CacheStatus) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Warnings: s.lastWarnings,
		Meta: model.EnvelopeMeta{
			RequestID: uuid.NewString(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Node:      s.lastNode,
			Cache:     cacheStatus,
		},
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

// renderError always writes a full JSON (or plain) envelope to stderr.
func (s *runtimeState) renderError(commandPath string, err error) {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = s.lastCommand
		if commandPath == "" {
			commandPath = version.CLIName
		}
	}
	code := clierr.CodeOf(err)
	message := err.Error()
	if cErr, ok := clierr.As(err); ok {
		message = cErr.Error()
	}

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.Envelope = true
	settings.SelectFields = nil
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Error: &model.ErrorBody{
			Code:    int(code),
			Type:    code.Type(),
			Message: message,
		},
		Warnings: s.lastWarnings,
		Meta: model.EnvelopeMeta{
			RequestID: uuid.NewString(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Node:      s.lastNode,
			Cache:     cacheMetaBypass(),
		},
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

// openCache returns the block cache, or nil when it is disabled or unusable.
func (s *runtimeState) openCache() *cache.Store {
	if !s.settings.CacheEnabled {
		return nil
	}
	if s.cache == nil {
		store, err := cache.Open(s.settings.CachePath, s.settings.CacheLockPath)
		if err != nil {
			s.log.Warn("cache unavailable", zap.Error(err))
			s.settings.CacheEnabled = false
			return nil
		}
		s.cache = store
	}
	return s.cache
}

func (s *runtimeState) openJournal() (*journal.Store, error) {
	if !s.settings.JournalEnabled {
		return nil, clierr.New(clierr.CodeInvalidArgument, "submission journal is disabled")
	}
	if s.journal == nil {
		store, err := journal.Open(s.settings.JournalPath, s.settings.JournalLockPath)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, "open journal", err)
		}
		s.journal = store
	}
	return s.journal, nil
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func cacheMetaBypass() model.CacheStatus {
	return model.CacheStatus{Status: "bypass"}
}

func cacheMetaMiss() model.CacheStatus {
	return model.CacheStatus{Status: "miss"}
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return clierr.Wrap(clierr.CodeInternal, "interrupted", err)
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeInvalidArgument, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
