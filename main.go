package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"typeraider/coder"
	"typeraider/config"
	"typeraider/observability"
	"typeraider/provider"
	"typeraider/repo"
	"typeraider/storage"
	"typeraider/ui"
)

const Version = "v0.1.0"

type flags struct {
	model              string
	provider           string
	editFormat         string
	dryRun             bool
	noAutoCommits      bool
	noGit              bool
	noStream           bool
	noPretty           bool
	verbose            bool
	yes                bool
	restoreChatHistory bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "typeraider [files...]",
		Short: "Pair program with an LLM in your terminal",
		Long: `typeraider sends your request and the files you add to the chat to a
language model, writes the complete files it returns and commits each
change to git.

Type a request to start a turn. Lines starting with / are commands; /help
lists them. Ctrl+C interrupts the reply in progress.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, f, args)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.model, "model", "", "model name (overrides settings)")
	fl.StringVar(&f.provider, "provider", "", "provider: openai, anthropic, openrouter or ollama")
	fl.StringVar(&f.editFormat, "edit-format", "", "edit format: whole or function")
	fl.BoolVar(&f.dryRun, "dry-run", false, "show edits without writing files")
	fl.BoolVar(&f.noAutoCommits, "no-auto-commits", false, "do not commit applied edits")
	fl.BoolVar(&f.noGit, "no-git", false, "do not look for a git repository")
	fl.BoolVar(&f.noStream, "no-stream", false, "wait for the full reply instead of streaming it")
	fl.BoolVar(&f.noPretty, "no-pretty", false, "disable colors and markdown rendering")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "write a debug log to <data_dir>/debug.log")
	fl.BoolVarP(&f.yes, "yes", "y", false, "answer yes to every confirmation")
	fl.BoolVar(&f.restoreChatHistory, "restore-chat-history", false, "resume the latest session of this directory")

	return cmd
}

func (f flags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if f.model != "" {
		cfg.Provider.Model = f.model
	}
	if f.provider != "" {
		cfg.Provider.Type = f.provider
	}
	if f.editFormat != "" {
		cfg.Model.EditFormat = f.editFormat
	}
	if changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if f.noAutoCommits {
		cfg.Git.AutoCommits = false
	}
	if f.noGit {
		cfg.Git.Enabled = false
	}
	if f.noStream {
		cfg.Model.Stream = false
	}
	if f.noPretty {
		cfg.Pretty = false
	}
	if f.verbose {
		cfg.Debug = true
	}
	if changed("yes") {
		cfg.YesAlways = f.yes
	}
	if changed("restore-chat-history") {
		cfg.RestoreChatHistory = f.restoreChatHistory
	}
}

func run(cmd *cobra.Command, f flags, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	f.apply(cmd, cfg)
	if f.provider != "" {
		cfg.ResolveAPIKey()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dataDir := cfg.DataDir()
	logger, closeLog, err := config.NewLogger(dataDir, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		logger, closeLog = zap.NewNop(), func() {}
	}
	defer closeLog()
	observer := observability.NewZapObserver(logger)

	p, err := provider.NewProvider(cfg.ProviderConfig())
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	ctx := context.Background()

	var opts []coder.Option
	opts = append(opts, coder.WithLogger(logger), coder.WithObserver(observer))

	var gitRoot, gitWarning string
	if cfg.Git.Enabled {
		g, err := repo.Open(ctx, root, logger)
		switch {
		case err == nil:
			gitRoot = g.Root()
			opts = append(opts, coder.WithRepo(g))
		case errors.Is(err, repo.ErrNotRepository):
			logger.Info("no git repository", zap.String("dir", root))
			gitWarning = "No git repository found; edits will not be committed."
		default:
			logger.Warn("git unavailable", zap.Error(err))
			gitWarning = fmt.Sprintf("Git unavailable: %v", err)
		}
	}

	sessions, err := storage.NewSessionStorage(dataDir)
	if err != nil {
		return err
	}
	session, err := openSession(sessions, cfg, root, p.GetModel())
	if err != nil {
		return err
	}
	opts = append(opts, coder.WithSession(sessions, session))

	consoleOpts := []ui.ConsoleOption{
		ui.WithPretty(cfg.Pretty && isatty.IsTerminal(os.Stdout.Fd())),
		ui.WithYesAlways(cfg.YesAlways),
		ui.WithWidth(terminalWidth()),
		ui.WithLogger(logger),
	}
	exchanges, err := storage.NewExchangeLog(dataDir)
	if err != nil {
		logger.Warn("exchange log unavailable", zap.Error(err))
	} else {
		defer exchanges.Close()
		consoleOpts = append(consoleOpts, ui.WithExchangeLog(exchanges, session.ID, p.GetModel))
	}
	console := ui.NewConsole(os.Stdin, os.Stdout, consoleOpts...)
	if gitWarning != "" {
		console.WriteWarning(gitWarning)
	}

	c, err := coder.New(coderConfig(cfg, root), p, console, opts...)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		c.AddFiles(args...)
	}

	banner := []string{
		fmt.Sprintf("typeraider %s", Version),
		fmt.Sprintf("Model: %s via %s, edit format %s", p.GetModel(), cfg.Provider.Type, cfg.Model.EditFormat),
	}
	if gitRoot != "" {
		banner = append(banner, fmt.Sprintf("Git repo: %s", gitRoot))
	} else {
		banner = append(banner, "Git repo: none")
	}
	if n := len(c.Ledger().History()); n > 0 {
		banner = append(banner, fmt.Sprintf("Restored %d messages from %s", n, session.Name))
	}
	console.Banner(banner...)

	if err := sessions.SaveCurrentSessionID(session.ID); err != nil {
		logger.Warn("could not save current session id", zap.Error(err))
	}
	return c.Run(ctx, console)
}

func openSession(sessions *storage.SessionStorage, cfg *config.Config, root, modelName string) (*storage.Session, error) {
	if cfg.RestoreChatHistory {
		session, err := sessions.LatestForRoot(root)
		if err != nil {
			return nil, fmt.Errorf("failed to restore chat history: %w", err)
		}
		if session != nil {
			return session, nil
		}
	}
	return storage.NewSession(root, modelName), nil
}

func coderConfig(cfg *config.Config, root string) coder.Config {
	return coder.Config{
		Root:                 root,
		Stream:               cfg.Model.Stream,
		Temperature:          cfg.Temperature(),
		ExtraParams:          cfg.Model.ExtraParams,
		EditFormat:           coder.EditFormat(strings.ToLower(cfg.Model.EditFormat)),
		Fence:                coder.Fence{Open: cfg.FenceOpen, Close: cfg.FenceClose},
		AutoCommits:          cfg.Git.AutoCommits,
		DryRun:               cfg.DryRun,
		Pricing:              cfg.Model.Pricing,
		CacheWarmingPings:    cfg.CacheWarmingPings,
		CacheWarmingInterval: cfg.CacheWarmingInterval,
		Client:               coder.DefaultClientConfig(),
	}
}

func terminalWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
