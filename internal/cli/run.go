package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaxron/urlview/middleware/circuitbreaker"
	"github.com/jaxron/urlview/middleware/metrics"
	"github.com/jaxron/urlview/middleware/ratelimit"
	"github.com/jaxron/urlview/middleware/retry"
	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/file"
	"github.com/jaxron/urlview/pkg/address/middleware"
	"github.com/jaxron/urlview/pkg/address/redis"
	"github.com/jaxron/urlview/pkg/config"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/jaxron/urlview/pkg/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/rueidis"
	flag "github.com/spf13/pflag"
)

var (
	errUsage          = stderrors.New("usage")
	errUnknownCommand = stderrors.New("unknown command")
	errDetached       = stderrors.New("command needs the shared address, not --url")
)

// breaker settings for remote providers
const (
	breakerMaxRequests = 3
	breakerInterval    = 30 * time.Second
	breakerTimeout     = 10 * time.Second
)

type globalFlags struct {
	workDir     string
	configPath  string
	stateFile   string
	redisAddr   string
	namespace   string
	arrayFormat string
	url         string
	metricsFile string
	verbose     bool
	help        bool
}

func newGlobalFlagSet(f *globalFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("urlview", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(&strings.Builder{}) // discard pflag output

	fs.StringVarP(&f.workDir, "cwd", "C", "", "run as if started in `dir`")
	fs.StringVarP(&f.configPath, "config", "c", "", "read settings from `file` (default ./"+config.FileName+")")
	fs.StringVar(&f.stateFile, "state", "", "keep the shared address in `file`")
	fs.StringVar(&f.redisAddr, "redis", "", "keep the shared address in Redis at `addr`")
	fs.StringVar(&f.namespace, "namespace", "", "Redis `namespace` of the shared address")
	fs.StringVar(&f.arrayFormat, "array-format", "", "accept query arrays written as none, bracket, index or comma")
	fs.StringVar(&f.url, "url", "", "work on a detached copy of `href` instead of the shared address")
	fs.StringVar(&f.metricsFile, "metrics", "", "write navigation metrics to `file` in Prometheus text format")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log navigations to stderr")
	fs.BoolVarP(&f.help, "help", "h", false, "show help")
	return fs
}

// Run is the main entry point. args includes the program name. Returns the
// exit code.
func Run(ctx context.Context, out, errOut io.Writer, args []string) int {
	var flags globalFlags
	fs := newGlobalFlagSet(&flags)

	if err := fs.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, fs)
		return 1
	}
	if flags.help || fs.NArg() == 0 {
		printUsage(out, fs)
		return 0
	}

	cfg, err := loadConfig(&flags)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	level, err := cfg.Level()
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	log := logger.NewLevelLogger(errOut, level)

	s := &session{out: out, log: log}
	defer s.close()

	if err := s.open(ctx, &flags, cfg); err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	code := 0
	if err := s.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		fprintln(errOut, "error:", err)
		if stderrors.Is(err, errUsage) || stderrors.Is(err, errUnknownCommand) {
			printUsage(errOut, fs)
		}
		code = 1
	}

	if err := s.writeMetrics(flags.metricsFile); err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	return code
}

// loadConfig reads the config file and applies the flag overrides.
func loadConfig(flags *globalFlags) (config.Config, error) {
	workDir := flags.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
		workDir = wd
	}

	path, mustExist := filepath.Join(workDir, config.FileName), false
	if flags.configPath != "" {
		path, mustExist = flags.configPath, true
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
	}

	cfg, err := config.Load(path, mustExist)
	if err != nil {
		return config.Config{}, err
	}

	if flags.stateFile != "" {
		cfg.StateFile = flags.stateFile
		cfg.Redis.Addr = ""
	}
	if flags.redisAddr != "" {
		cfg.Redis.Addr = flags.redisAddr
	}
	if flags.namespace != "" {
		cfg.Redis.Namespace = flags.namespace
	}
	if flags.arrayFormat != "" {
		cfg.ArrayFormat = flags.arrayFormat
	}
	if flags.verbose {
		cfg.LogLevel = logger.LevelDebug.String()
	}
	if flags.metricsFile != "" && !filepath.IsAbs(flags.metricsFile) {
		flags.metricsFile = filepath.Join(workDir, flags.metricsFile)
	}
	if cfg.StateFile != "" && !filepath.IsAbs(cfg.StateFile) {
		cfg.StateFile = filepath.Join(workDir, cfg.StateFile)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// navigator is a shared address with a session history.
type navigator interface {
	address.Provider
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Entries(ctx context.Context) ([]string, int, error)
}

// session is the view a single invocation works on.
type session struct {
	out    io.Writer
	log    logger.Logger
	view   *view.View
	nav    navigator
	client rueidis.Client
	reg    *prometheus.Registry
}

func (s *session) open(ctx context.Context, flags *globalFlags, cfg config.Config) error {
	codec, err := cfg.Codec()
	if err != nil {
		return err
	}
	opts := []view.Option{view.WithCodec(codec), view.WithLogger(s.log)}

	if flags.url != "" {
		s.view, err = view.Detached(flags.url, opts...)
		return err
	}

	var middlewares []middleware.Middleware
	if flags.metricsFile != "" {
		s.reg = prometheus.NewRegistry()
		middlewares = append(middlewares, metrics.New(metrics.WithRegistry(s.reg)))
	}
	if cfg.RateLimit.PerSecond > 0 {
		middlewares = append(middlewares, ratelimit.New(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst))
	}
	if cfg.Retry.MaxAttempts > 0 {
		middlewares = append(middlewares, retry.New(
			cfg.Retry.MaxAttempts,
			time.Duration(cfg.Retry.InitialInterval),
			time.Duration(cfg.Retry.MaxInterval),
		))
	}

	if cfg.Redis.Addr != "" {
		s.client, err = rueidis.NewClient(rueidis.ClientOption{InitAddress: []string{cfg.Redis.Addr}})
		if err != nil {
			return fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		p, err := redis.New(ctx, s.client, cfg.Redis.Namespace, cfg.Start)
		if err != nil {
			return err
		}
		p.SetLogger(s.log)
		s.nav = p
		middlewares = append(middlewares, circuitbreaker.New(breakerMaxRequests, breakerInterval, breakerTimeout))
	} else {
		p, err := file.New(ctx, cfg.StateFile, cfg.Start)
		if err != nil {
			return err
		}
		p.SetLogger(s.log)
		s.nav = p
	}

	opts = append(opts, view.WithMiddleware(middlewares...))
	s.view, err = view.Live(ctx, s.nav, opts...)
	return err
}

// writeMetrics replaces path with the metrics gathered during the session.
func (s *session) writeMetrics(path string) error {
	if s.reg == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, s.reg); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func (s *session) close() {
	if s.client != nil {
		s.client.Close()
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fprintln(w, "urlview - read and write a shared address")
	fprintln(w)
	fprintln(w, "Usage: urlview [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Commands:")
	for _, c := range commands {
		fprintln(w, c.helpLine())
	}
	fprintln(w)
	fprintln(w, "Global flags:")

	var buf strings.Builder
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(&strings.Builder{})
	_, _ = fmt.Fprint(w, buf.String())
}
