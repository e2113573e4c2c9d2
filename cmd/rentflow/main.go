package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-rentflow/internal/config"
	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/prompt"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"signup":    {"create an account with the signup wizard", runSignup},
	"login":     {"sign in and store the session", runLogin},
	"logout":    {"forget the stored session", runLogout},
	"status":    {"show tenant onboarding progress", runStatus},
	"profile":   {"complete the tenant profile wizard", runProfile},
	"apply":     {"apply for a property: apply <property-id>", runApply},
	"search":    {"search listings", runSearch},
	"favorites": {"list, add or remove saved listings", runFavorites},
	"flows":     {"list the built-in wizards", runFlows},
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command> [args]\n\nCommands:\n", filepath.Base(os.Args[0]))
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	apiURL := flag.String("api", "", "backend base URL (overrides config)")
	uploadDir := flag.String("upload-dir", "", "store documents in this directory instead of remote storage")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		log.Fatalf("unknown command %q", flag.Arg(0))
	}

	var opts []config.Option
	if *apiURL != "" {
		opts = append(opts, config.WithAPIBaseURL(*apiURL))
	}
	if *uploadDir != "" {
		opts = append(opts, config.WithUploadDir(*uploadDir))
	}
	if *logLevel != "" {
		opts = append(opts, config.WithLogLevel(*logLevel))
	}
	cfg, err := config.Load(*configPath, opts...)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.run(ctx, a, flag.Args()[1:]); err != nil {
		stop()
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			os.Exit(130)
		}
		log.Fatalf("%s: %s", flag.Arg(0), client.Message(err))
	}
}

// app bundles the long-lived collaborators every command needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	session *client.Session
	api     *client.Client
	styles  prompt.Styles
}

func newApp(cfg *config.Config) (*app, error) {
	logger := cfg.Logger(os.Stderr)

	var store client.Storage = &client.MemoryStorage{}
	if cfg.SessionFile != "" {
		store = client.FileStorage{Path: cfg.SessionFile}
	}
	session, err := client.NewSession(store)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, session: session, styles: prompt.DefaultStyles()}
	a.api, err = client.New(cfg.APIBaseURL,
		client.WithSession(session),
		client.WithLogger(logger),
		client.WithUserAgent("rentflow-cli"),
		client.WithOnUnauthorized(func() {
			fmt.Fprintln(os.Stderr, a.styles.Error.Render("Your session has expired. Run `rentflow login` to sign in again."))
		}),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		return errors.New("not signed in; run `rentflow login` first")
	}
	return nil
}

func (a *app) println(s string) {
	fmt.Println(s)
}

func (a *app) locationSuggester() prompt.Suggester {
	return func(ctx context.Context, partial string) []string {
		if len(strings.TrimSpace(partial)) < 2 {
			return nil
		}
		found, err := a.api.Locations.Suggest(ctx, partial, 8)
		if err != nil {
			a.logger.Debug("rentflow: location lookup failed", "error", err)
			return nil
		}
		out := make([]string, 0, len(found))
		for _, loc := range found {
			out = append(out, loc.Value)
		}
		return out
	}
}
