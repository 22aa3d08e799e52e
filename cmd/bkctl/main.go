// Command bkctl lists and manages Buildkite resources from the command line.
//
// Usage:
//
//	bkctl [-config file] [-token t] [-metrics-addr addr] <command> [flags] [args]
//
// Commands:
//
//	orgs                                   list organizations
//	pipelines [-limit n] <org>             list pipelines
//	builds [-limit n] [-branch b] [-state s] [-commit c] <org> <pipeline>
//	agents [-limit n] <org>                list agents
//	log <org> <pipeline> <build> <job>     print a job log
//	stop-agent [-force] <org> <agent-id>   stop an agent
//
// Listings print one JSON object per line and exit non-zero when the
// listing ended on an API error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/buildkite-client/internal/config"
	"github.com/Sternrassler/buildkite-client/pkg/buildkite"
	"github.com/Sternrassler/buildkite-client/pkg/logging"
	"github.com/Sternrassler/buildkite-client/pkg/metrics"
	"github.com/Sternrassler/buildkite-client/pkg/pagination"
	"github.com/Sternrassler/buildkite-client/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one bkctl invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bkctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file (default: ./bkctl.yaml or ~/.config/bkctl/bkctl.yaml)")
	token := fs.String("token", "", "Buildkite API token (overrides BUILDKITE_API_TOKEN)")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		usage(fs)
		return exitUsage
	}

	overrides := map[string]any{}
	if *token != "" {
		overrides["api.token"] = *token
	}

	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(stderr, "bkctl: %v\n", err)
		return exitError
	}

	logCfg := cfg.Logging()
	logCfg.Output = stderr
	logger, err := logging.Setup(logCfg)
	if err != nil {
		fmt.Fprintf(stderr, "bkctl: %v\n", err)
		return exitError
	}

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Buildkite client")
		return exitError
	}
	defer app.Close()

	if *metricsAddr != "" {
		shutdown, err := serveMetrics(*metricsAddr, logger)
		if err != nil {
			logger.Error().Err(err).Str("addr", *metricsAddr).Msg("Failed to start metrics server")
			return exitError
		}
		defer shutdown()
	}

	err = app.dispatch(ctx, fs.Arg(0), fs.Args()[1:], stdout, stderr)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return exitUsage
	default:
		logger.Error().Err(err).Str("command", fs.Arg(0)).Msg("Command failed")
		return exitError
	}
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "Usage: bkctl [flags] <command> [command flags] [args]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  orgs [-limit n]")
	fmt.Fprintln(out, "  pipelines [-limit n] <org>")
	fmt.Fprintln(out, "  builds [-limit n] [-branch b] [-state s] [-commit c] <org> <pipeline>")
	fmt.Fprintln(out, "  agents [-limit n] <org>")
	fmt.Fprintln(out, "  log <org> <pipeline> <build> <job>")
	fmt.Fprintln(out, "  stop-agent [-force] <org> <agent-id>")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Flags:")
	fs.PrintDefaults()
}

// app holds the clients shared by every command.
type app struct {
	bk    *buildkite.Client
	redis *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	bkCfg := cfg.Buildkite()
	a := &app{}

	if cfg.Redis.Enabled() {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Address, err)
		}
		logger.Debug().Str("addr", cfg.Redis.Address).Msg("Sharing rate limit state via redis")
		bkCfg.Client.RateLimitStore = ratelimit.NewRedisStore(a.redis)
	}

	bk, err := buildkite.New(bkCfg)
	if err != nil {
		if a.redis != nil {
			a.redis.Close()
		}
		return nil, err
	}
	a.bk = bk

	return a, nil
}

func (a *app) Close() {
	a.bk.Close()
	if a.redis != nil {
		a.redis.Close()
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch command {
	case "orgs":
		limit := fs.Int("limit", 0, "Stop after n organizations (0 = all)")
		if err := parseArgs(fs, args, 0); err != nil {
			return err
		}
		return stream(ctx, a.bk.Organizations().Iter(), *limit, stdout)

	case "pipelines":
		limit := fs.Int("limit", 0, "Stop after n pipelines (0 = all)")
		if err := parseArgs(fs, args, 1, "org"); err != nil {
			return err
		}
		return stream(ctx, a.bk.Pipelines().IterFor(fs.Arg(0)), *limit, stdout)

	case "builds":
		limit := fs.Int("limit", 0, "Stop after n builds (0 = all)")
		branch := fs.String("branch", "", "Only builds of this branch")
		state := fs.String("state", "", "Only builds in this state")
		commit := fs.String("commit", "", "Only builds of this commit")
		if err := parseArgs(fs, args, 2, "org", "pipeline"); err != nil {
			return err
		}
		opts := &buildkite.BuildListOptions{
			Branch: *branch,
			State:  buildkite.BuildState(*state),
			Commit: *commit,
		}
		return stream(ctx, a.bk.Builds().IterFor(fs.Arg(0), fs.Arg(1), opts), *limit, stdout)

	case "agents":
		limit := fs.Int("limit", 0, "Stop after n agents (0 = all)")
		if err := parseArgs(fs, args, 1, "org"); err != nil {
			return err
		}
		return stream(ctx, a.bk.Agents().IterFor(fs.Arg(0)), *limit, stdout)

	case "log":
		if err := parseArgs(fs, args, 4, "org", "pipeline", "build", "job"); err != nil {
			return err
		}
		l, err := a.bk.Builds().Logs(ctx, fs.Arg(0), fs.Arg(1), fs.Arg(2), fs.Arg(3))
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, l.Content)
		return err

	case "stop-agent":
		force := fs.Bool("force", false, "Cancel the agent's running job instead of waiting for it")
		if err := parseArgs(fs, args, 2, "org", "agent-id"); err != nil {
			return err
		}
		if err := a.bk.Agents().Stop(ctx, fs.Arg(0), fs.Arg(1), *force); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "agent %s stopping\n", fs.Arg(1))
		return nil

	default:
		fmt.Fprintf(stderr, "bkctl: unknown command %q\n", command)
		return errUsage
	}
}

// parseArgs parses command flags and checks the number of positional arguments.
func parseArgs(fs *flag.FlagSet, args []string, want int, names ...string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != want {
		fmt.Fprintf(fs.Output(), "bkctl %s: expected %d argument(s) %v, got %d\n", fs.Name(), want, names, fs.NArg())
		return errUsage
	}
	return nil
}

// stream writes every record of seq as one JSON line, stopping after limit
// records when limit > 0. The sequence's terminal error is returned.
func stream[T any](ctx context.Context, seq *pagination.Sequence[T], limit int, out io.Writer) error {
	enc := json.NewEncoder(out)
	written := 0

	for item, err := range seq.All(ctx) {
		if err != nil {
			return err
		}
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		written++
		if limit > 0 && written >= limit {
			break
		}
	}

	return nil
}

// serveMetrics exposes Prometheus metrics until the returned shutdown runs.
func serveMetrics(addr string, logger zerolog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}, nil
}
