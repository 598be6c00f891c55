package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/guidesite/internal/check"
	"git.home.luguber.info/inful/guidesite/internal/config"
	"git.home.luguber.info/inful/guidesite/internal/content"
	siteerrors "git.home.luguber.info/inful/guidesite/internal/errors"
	"git.home.luguber.info/inful/guidesite/internal/gitinfo"
	"git.home.luguber.info/inful/guidesite/internal/history"
	"git.home.luguber.info/inful/guidesite/internal/linkcheck"
	"git.home.luguber.info/inful/guidesite/internal/logfields"
	"git.home.luguber.info/inful/guidesite/internal/preview"
	"git.home.luguber.info/inful/guidesite/internal/site"
	"git.home.luguber.info/inful/guidesite/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Site descriptor path" default:"site.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Init struct {
		Force bool `help:"Overwrite an existing descriptor"`
	} `cmd:"" help:"Write a starter site descriptor"`

	Check struct {
		Format string `help:"Output format (text|json)"`
		Quiet  bool   `short:"q" help:"Only report errors"`
	} `cmd:"" help:"Verify the site structure against the descriptor"`

	Build struct {
		Output string `short:"o" help:"Override the output directory"`
	} `cmd:"" help:"Build the site into the output directory"`

	Preview struct {
		Port int `short:"p" help:"Override the preview port"`
	} `cmd:"" help:"Serve a live preview with file watching"`

	Links struct{} `cmd:"" help:"Verify external links in the documents"`

	View struct {
		Doc string `arg:"" help:"Document path relative to the docs directory"`
	} `cmd:"" help:"Render a guideline document in the terminal"`

	History struct {
		Kind  string `help:"Filter by run kind (check|build)"`
		Limit int    `default:"10" help:"Number of runs to show"`
	} `cmd:"" help:"Show recent check and build runs"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Bootstrap logging before the descriptor is available.
	setupLogging(config.LoggingConfig{}, CLI.Verbose)

	var err error
	switch ctx.Command() {
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	case "check":
		err = runCheck()
	case "build":
		err = runBuild()
	case "preview":
		err = runPreview()
	case "links":
		err = runLinks()
	case "view <doc>":
		err = runView(CLI.View.Doc)
	case "history":
		err = runHistory()
	case "version":
		fmt.Printf("guidesite %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	default:
		err = fmt.Errorf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		slog.Error("Command failed",
			logfields.Error(err),
			slog.String("category", string(siteerrors.GetCategory(err))))
		if siteerrors.IsCategory(err, siteerrors.CategoryConfig) {
			slog.Info("Run 'guidesite init' to create a starter descriptor")
		}
		os.Exit(1)
	}
}

// setupLogging installs the process-wide slog handler.
func setupLogging(cfg config.LoggingConfig, verbose bool) {
	level := slog.LevelInfo
	switch cfg.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadDescriptor loads the descriptor, applies its logging config, and
// returns the project root (the descriptor's directory).
func loadDescriptor() (*config.Descriptor, string, error) {
	desc, err := config.Load(CLI.Config)
	if err != nil {
		return nil, "", err
	}
	setupLogging(desc.Logging, CLI.Verbose)

	abs, err := filepath.Abs(CLI.Config)
	if err != nil {
		return nil, "", err
	}
	return desc, filepath.Dir(abs), nil
}

func runInit(path string, force bool) error {
	if err := config.Init(path, force); err != nil {
		return err
	}
	slog.Info("Descriptor written", logfields.Path(path))

	// Suggest repository settings from the surrounding git checkout.
	info, err := gitinfo.Inspect(filepath.Dir(path))
	if err != nil {
		slog.Debug("No git repository detected", logfields.Error(err))
		return nil
	}
	if info.RepoIdentifier != "" {
		slog.Info("Detected git remote; set 'repo' in the descriptor",
			slog.String("repo", info.RepoIdentifier))
	}
	if info.Branch != "" {
		slog.Info("Detected branch; set 'docs_branch' if it differs",
			slog.String("branch", info.Branch))
	}
	return nil
}

func runCheck() error {
	desc, root, err := loadDescriptor()
	if err != nil {
		return err
	}
	if CLI.Check.Quiet {
		desc.Checks.Quiet = true
	}
	if CLI.Check.Format != "" {
		format := config.NormalizeCheckFormat(CLI.Check.Format)
		if format == "" {
			return fmt.Errorf("unknown check format %q", CLI.Check.Format)
		}
		desc.Checks.Format = format
	}

	warnBranchMismatch(desc, root)

	tree, err := content.Discover(filepath.Join(root, desc.DocsDir))
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := check.NewChecker(desc.Checks).Run(desc, tree)
	if err != nil {
		return err
	}

	recordRun(desc, root, history.Run{
		ID:        uuid.NewString(),
		Kind:      history.RunKindCheck,
		StartedAt: start,
		Duration:  time.Since(start),
		DocsTotal: result.DocsTotal,
		Errors:    result.ErrorCount(),
		Warnings:  result.WarningCount(),
		TreeHash:  treeHashOf(tree),
		Outcome:   checkOutcome(result),
	})

	if err := check.NewFormatter(desc.Checks.Format).Format(os.Stdout, result, tree.Root); err != nil {
		return err
	}
	if result.HasErrors() {
		return fmt.Errorf("site structure check failed with %d errors", result.ErrorCount())
	}
	return nil
}

func runBuild() error {
	desc, root, err := loadDescriptor()
	if err != nil {
		return err
	}
	if CLI.Build.Output != "" {
		desc.Output.Directory = CLI.Build.Output
	}

	builder, err := site.NewBuilder(desc, root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, buildErr := builder.Build(ctx)
	if report != nil {
		recordRun(desc, root, history.Run{
			ID:        report.BuildID,
			Kind:      history.RunKindBuild,
			StartedAt: report.Start,
			Duration:  report.Duration(),
			DocsTotal: report.Docs,
			Errors:    len(report.Errors),
			Warnings:  len(report.Warnings),
			TreeHash:  report.TreeHash,
			Outcome:   string(report.Outcome),
		})
	}
	return buildErr
}

func runPreview() error {
	desc, root, err := loadDescriptor()
	if err != nil {
		return err
	}
	if CLI.Preview.Port != 0 {
		desc.Preview.Port = CLI.Preview.Port
	}

	srv, err := preview.NewServer(desc, root, prom.NewRegistry())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return srv.Run(ctx)
}

func runLinks() error {
	desc, root, err := loadDescriptor()
	if err != nil {
		return err
	}

	tree, err := content.Discover(filepath.Join(root, desc.DocsDir))
	if err != nil {
		return err
	}

	var cache linkcheck.Cache
	if desc.LinkCheck != nil && desc.LinkCheck.NATSURL != "" {
		cache, err = linkcheck.NewNATSCache(desc.LinkCheck)
		if err != nil {
			if !siteerrors.IsRetryable(err) {
				return err
			}
			slog.Warn("NATS link cache unavailable; using in-memory cache for this run",
				logfields.Error(err))
			cache = nil
		}
	}

	verifier := linkcheck.NewVerifier(desc.LinkCheck, cache, nil)
	defer func() { _ = verifier.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := verifier.Verify(ctx, tree, uuid.NewString())
	if err != nil {
		return err
	}

	fmt.Printf("%d links, %d probed, %d from cache, %d broken\n",
		report.LinksTotal, report.Probed, report.CacheHits, len(report.Broken))
	for _, broken := range report.Broken {
		fmt.Printf("  %s (in %s): %s\n", broken.URL, broken.Doc, broken.Error)
	}
	if len(report.Broken) > 0 {
		return fmt.Errorf("%d broken links", len(report.Broken))
	}
	return nil
}

func runView(docPath string) error {
	desc, root, err := loadDescriptor()
	if err != nil {
		return err
	}

	tree, err := content.Discover(filepath.Join(root, desc.DocsDir))
	if err != nil {
		return err
	}
	doc := tree.ByRelPath(filepath.ToSlash(docPath))
	if doc == nil {
		return fmt.Errorf("document %s not found under %s", docPath, desc.DocsDir)
	}
	_, _, body, err := doc.SplitFrontMatter()
	if err != nil {
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := renderer.Render(string(body))
	if err != nil {
		return fmt.Errorf("render %s: %w", doc.RelPath, err)
	}
	fmt.Print(out)
	return nil
}

func runHistory() error {
	desc, root, err := loadDescriptor()
	if err != nil {
		return err
	}
	if desc.History == nil || !desc.History.Enabled {
		return fmt.Errorf("run history is disabled in the descriptor")
	}

	store, err := history.Open(filepath.Join(root, desc.History.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(context.Background(), history.RunKind(CLI.History.Kind), CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded yet")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %-5s  %-8s  %3d docs  %2d errors  %2d warnings  %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Kind, run.Outcome, run.DocsTotal, run.Errors, run.Warnings,
			run.Duration.Round(time.Millisecond))
	}
	return nil
}

// recordRun persists a run when history is enabled. Best effort: a
// failing store never fails the command.
func recordRun(desc *config.Descriptor, root string, run history.Run) {
	if desc.History == nil || !desc.History.Enabled {
		return
	}
	store, err := history.Open(filepath.Join(root, desc.History.Path))
	if err != nil {
		slog.Warn("Failed to open run history", logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Record(context.Background(), run); err != nil {
		slog.Warn("Failed to record run", logfields.Error(err))
	}
}

// warnBranchMismatch logs when the checked-out branch differs from the
// descriptor's documentation branch.
func warnBranchMismatch(desc *config.Descriptor, root string) {
	info, err := gitinfo.Inspect(root)
	if err != nil || info.Branch == "" {
		return
	}
	if !info.BranchMatches(desc.DocsBranch) {
		slog.Warn("Checked-out branch differs from docs_branch",
			slog.String("branch", info.Branch),
			slog.String("docs_branch", desc.DocsBranch))
	}
}

func treeHashOf(tree *content.Tree) string {
	hash, err := content.ComputeTreeHash(tree.All())
	if err != nil {
		return ""
	}
	return hash
}

func checkOutcome(result *check.Result) string {
	switch {
	case result.HasErrors():
		return "failed"
	case result.WarningCount() > 0:
		return "warning"
	default:
		return "success"
	}
}
