package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GriffinCanCode/webclient"
	"github.com/GriffinCanCode/webclient/internal/infrastructure/config"
	"github.com/GriffinCanCode/webclient/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webclient/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webclient/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/webclient/internal/middleware"
	"github.com/GriffinCanCode/webclient/internal/mockapi"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const usage = `usage: webapi [-config file] <command> [args]

commands:
  call <method> [key=value ...]   call a method; key=@path uploads a file
  methods [family]                list known methods
  serve-mock [-addr :8080] [-rps n [-global]] [-cors]
                                  run a local stand-in for the API
`

func main() {
	configPath := flag.String("config", "", "TOML or YAML config file (default: environment)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{
		Name:        "webapi",
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	switch args[0] {
	case "call":
		err = runCall(ctx, cfg, log.Logger, args[1:])
	case "methods":
		runMethods(args[1:])
	case "serve-mock":
		err = runServeMock(ctx, cfg, log.Logger, args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func runCall(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	if len(args) == 0 {
		return errors.New("call: method name required")
	}
	method := args[0]

	callArgs, closeFiles, err := parseArgs(args[1:])
	if err != nil {
		return err
	}
	defer closeFiles()

	token, clientCfg, err := webclient.ConfigFrom(cfg)
	if err != nil {
		return err
	}
	clientCfg.Logger = logger

	client, err := webclient.New(token, clientCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.APICall(ctx, method, callArgs)
	if err != nil {
		var apiErr *webclient.Error
		if errors.As(err, &apiErr) && apiErr.Data != nil {
			printJSON(apiErr.Data)
		}
		return err
	}

	printJSON(res.Data)
	return nil
}

// parseArgs turns key=value pairs into call arguments. A value starting
// with @ names a file to upload.
func parseArgs(pairs []string) (map[string]any, func(), error) {
	out := make(map[string]any, len(pairs))
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			closeAll()
			return nil, nil, fmt.Errorf("argument %q is not key=value", pair)
		}

		if path, isFile := strings.CutPrefix(value, "@"); isFile {
			f, err := os.Open(path)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			files = append(files, f)
			out[key] = f
			continue
		}
		out[key] = value
	}

	return out, closeAll, nil
}

func runMethods(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = strings.TrimSuffix(args[0], ".") + "."
	}

	for _, name := range webclient.Methods() {
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		if required, _ := webclient.RequiredArgs(name); len(required) > 0 {
			fmt.Printf("%s\t%s\n", name, strings.Join(required, ","))
			continue
		}
		fmt.Println(name)
	}
}

// mockOptions configures the stand-in API served by serve-mock.
type mockOptions struct {
	Token  string
	RPS    float64
	Burst  int
	Global bool
	CORS   bool
}

// newMock assembles the stand-in API with its metrics and tracing chain.
// The returned func releases the tracer.
func newMock(opts mockOptions, logger *zap.Logger) (*mockapi.Server, func()) {
	metrics := monitoring.NewMetrics(nil)
	tracer := tracing.New("mockapi", logger)
	metrics.ObserveDroppedSpans(tracer.Dropped)

	chain := []gin.HandlerFunc{
		monitoring.Middleware(metrics),
		tracing.HTTPMiddleware(tracer),
	}
	if opts.CORS {
		chain = append(chain, middleware.CORS(middleware.DefaultCORSConfig()))
	}
	if opts.RPS > 0 {
		limit := middleware.RateLimitConfig{RequestsPerSecond: opts.RPS, Burst: opts.Burst}
		if opts.Global {
			chain = append(chain, middleware.GlobalRateLimit(limit))
		} else {
			chain = append(chain, middleware.RateLimit(limit))
		}
	}

	mock := mockapi.New(opts.Token,
		mockapi.WithMiddleware(chain...),
		mockapi.WithHandler("/metrics", metrics.Handler()),
	)
	return mock, tracer.Close
}

func runServeMock(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("serve-mock", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	var opts mockOptions
	fs.StringVar(&opts.Token, "token", cfg.API.Token, "accepted token (empty accepts any)")
	fs.Float64Var(&opts.RPS, "rps", 0, "per-client, per-method request rate (0 disables)")
	fs.IntVar(&opts.Burst, "burst", middleware.DefaultRateLimitConfig().Burst, "rate limit burst")
	fs.BoolVar(&opts.Global, "global", false, "apply -rps to all requests together")
	fs.BoolVar(&opts.CORS, "cors", false, "allow cross-origin requests")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mock, closeMock := newMock(opts, logger)
	defer closeMock()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mock.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock API listening",
			zap.String("addr", *addr),
			zap.Float64("rps", opts.RPS),
			zap.Bool("global", opts.Global),
			logging.Token("token", opts.Token),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down mock API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printJSON(v any) {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
