package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/xhad/pdfchat/internal/types"
	"github.com/xhad/pdfchat/pkg/client"
	cfgPkg "github.com/xhad/pdfchat/pkg/config"
	"github.com/xhad/pdfchat/pkg/logging"
	"github.com/xhad/pdfchat/pkg/session"
)

type options struct {
	configPath   string
	baseURL      string
	pollInterval time.Duration
	timeout      time.Duration
	logLevel     string
	noColor      bool
	noSpinner    bool
	pdfPath      string
}

func main() {
	opts := parseFlags(os.Args[1:])

	config, err := loadConfig(opts)
	if err != nil {
		log.Fatal(err)
	}
	if !config.UI.Color {
		color.NoColor = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, opts.pdfPath, os.Stdin, os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func parseFlags(args []string) options {
	var opts options

	fs := flag.NewFlagSet("pdfchat", flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.StringVar(&opts.baseURL, "url", "", "Document service URL")
	fs.DurationVar(&opts.pollInterval, "poll-interval", 0, "Interval between status checks")
	fs.DurationVar(&opts.timeout, "timeout", 0, "HTTP request timeout")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error, none)")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&opts.noSpinner, "no-spinner", false, "Disable the processing spinner")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfchat [flags] [file.pdf]\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	opts.pdfPath = fs.Arg(0)
	return opts
}

// loadConfig layers command line flags over the config file and environment.
func loadConfig(opts options) (types.Config, error) {
	cfg, err := cfgPkg.LoadConfig(opts.configPath)
	if err != nil {
		return types.Config{}, err
	}

	if opts.baseURL != "" {
		cfg.Service.BaseURL = opts.baseURL
	}
	if opts.pollInterval != 0 {
		cfg.Poll.Interval = opts.pollInterval
	}
	if opts.timeout != 0 {
		cfg.Service.Timeout = opts.timeout
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return types.Config{}, fmt.Errorf("invalid configuration: %v", errs[0])
	}

	runtime := cfg.Runtime()
	if opts.noColor {
		runtime.UI.Color = false
	}
	if opts.noSpinner {
		runtime.UI.Spinner = false
	}
	return runtime, nil
}

func run(ctx context.Context, config types.Config, pdfPath string, in io.Reader, out, errOut io.Writer) error {
	logger, err := logging.New(errOut, config.Log.Level, config.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	logger = kitlog.With(logger, "svc", "pdfchat")

	level.Debug(logger).Log("msg", "starting", "base_url", config.Service.BaseURL, "poll_interval", config.Poll.Interval)
	defer level.Debug(logger).Log("msg", "stopped")

	// Initialize components
	svc, err := client.NewWithConfig(client.ClientConfig{
		BaseURL:   config.Service.BaseURL,
		Timeout:   config.Service.Timeout,
		UserAgent: config.Service.UserAgent,
		Logger:    logging.Component(logger, "client"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize client: %v", err)
	}

	v := newView(out, config.UI.Spinner)

	var sess *session.Session
	sess, err = session.NewWithConfig(session.SessionConfig{
		Service:      svc,
		PollInterval: config.Poll.Interval,
		Logger:       logging.Component(logger, "session"),
		OnStatus:     v.status,
		OnReady:      func() { v.ready(sess.FileName()) },
		OnMessage:    v.message,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session: %v", err)
	}
	defer sess.Close()

	r := &repl{ctx: ctx, sess: sess, view: v, baseURL: svc.BaseURL()}
	return r.loop(in, pdfPath)
}
