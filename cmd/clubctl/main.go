// Command clubctl is the terminal front-end of the club scheduler.
//
// It keeps the session token and the cached profile under CLUB_STATE_DIR so
// that consecutive invocations stay signed in, and renders the month
// calendar, schedule details and the administrator screens as text.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/club-scheduler/internal/client"
	"github.com/example/club-scheduler/internal/clientstore"
	"github.com/example/club-scheduler/internal/config"
	"github.com/example/club-scheduler/internal/logging"
	"github.com/example/club-scheduler/internal/session"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log := newConsoleLogger(stderr, false)
	connect := func(opts globalOptions) (*app, error) {
		log = newConsoleLogger(stderr, opts.verbose)

		cfg, err := config.LoadClient()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		if opts.apiURL != "" {
			cfg.APIURL = opts.apiURL
		}
		if opts.stateDir != "" {
			cfg.StateDir = opts.stateDir
		}
		return newApp(cfg, stdout, log, sdkLogger(stderr, opts.verbose))
	}

	root := newRootCommand(stdout, stderr, connect)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return report(stdout, log, err)
	}
	return exitOK
}

func newConsoleLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Str("component", "clubctl").
		Logger()
}

// sdkLogger routes client and session diagnostics to stderr under -v only.
func sdkLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return logging.Discard()
	}
	return logging.NewText(w, slog.LevelDebug)
}

type app struct {
	api      *client.Client
	sessions *session.Store
	out      io.Writer
	log      zerolog.Logger
	now      func() time.Time
	calendar *time.Location
}

func newApp(cfg config.ClientConfig, out io.Writer, log zerolog.Logger, sdk *slog.Logger) (*app, error) {
	store, err := clientstore.NewFileStore(cfg.StateDir, nil)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("state_dir", store.Dir()).Str("api", cfg.APIURL).Msg("client configured")

	api, err := client.New(client.Options{
		BaseURL:  cfg.APIURL,
		Timeout:  cfg.HTTPTimeout,
		Tokens:   store,
		Profiles: store,
		Logger:   sdk,
	})
	if err != nil {
		return nil, err
	}

	sessions := session.New(api, store, store, sdk)
	api.SetUnauthorizedHandler(func() {
		sessions.HandleUnauthorized()
		log.Debug().Msg("session rejected by the server")
	})

	calendar := cfg.Location
	if calendar == nil {
		calendar = time.Local
	}
	return &app{api: api, sessions: sessions, out: out, log: log, now: time.Now, calendar: calendar}, nil
}

func (a *app) report(err error) int {
	return report(a.out, a.log, err)
}

// report prints err for the member and returns the exit code.
func report(out io.Writer, log zerolog.Logger, err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(out, "사용법: %s\n", usage.usage)
		return exitUsage
	}

	if errors.Is(err, errNotSignedIn) {
		fmt.Fprintln(out, "로그인이 필요합니다. clubctl login <이름> <전화번호>")
		return exitError
	}

	if errors.Is(err, errAdminOnly) {
		fmt.Fprintln(out, "관리자 권한이 필요합니다.")
		return exitError
	}

	var validation *client.ValidationError
	if errors.As(err, &validation) {
		for _, field := range sortedKeys(validation.Fields) {
			fmt.Fprintf(out, "- %s\n", validation.Fields[field])
		}
		return exitError
	}

	var reqErr *client.RequestError
	if errors.As(err, &reqErr) {
		fmt.Fprintln(out, reqErr.Message)
		for _, field := range reqErr.Fields {
			fmt.Fprintf(out, "- %s\n", field.Message)
		}
		log.Debug().Err(err).Int("status", reqErr.Status).Msg("request failed")
		return exitError
	}

	log.Error().Err(err).Msg("command failed")
	return exitError
}
