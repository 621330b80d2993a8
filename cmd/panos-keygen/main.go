// Command panos-keygen generates a PAN-OS API key for a user.
//
// Password can be provided via:
//   - --password flag (least secure, visible in process list)
//   - PANOS_PASSWORD environment variable or a .env file (recommended)
//   - the password field of a --config profile
//   - stdin prompt (if none of the above is set)
//
// Usage:
//
//	panos-keygen --url https://<device> --user <username>
//
// Examples:
//
//	# Using environment variable (recommended)
//	export PANOS_PASSWORD='secret'
//	panos-keygen --url https://192.0.2.1 --user admin
//
//	# Lab device with a self-signed certificate, through a proxy
//	panos-keygen --url https://192.0.2.1 --user admin --insecure --proxy http://proxy:3128
//
//	# Using a profile file
//	panos-keygen --config ~/.panos.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/smnsjas/go-panos/client"
	"github.com/smnsjas/go-panos/internal/config"
	plog "github.com/smnsjas/go-panos/internal/log"
	"github.com/smnsjas/go-panos/xmlapi"
)

// Exit codes, one per failure kind.
const (
	exitOK = iota
	exitUsage
	exitConfig
	exitTransport
	exitProtocol
	exitAuth
)

type options struct {
	configPath string
	envFile    string

	url      string
	username string
	password string
	proxy    string
	insecure bool
	timeout  time.Duration

	logLevel string
	logFile  string
}

// readPassword prompts on the terminal. Replaced in tests.
var readPassword = func(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password given and stdin is not a terminal")
	}
	fmt.Fprint(w, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "panos-keygen",
		Short:         "Generate a PAN-OS API key",
		Long:          "Authenticates against the PAN-OS XML API with type=keygen and prints the generated API key.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML profile file")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading PANOS_* variables")
	f.StringVar(&opts.url, "url", "", "device base URL including scheme (e.g. https://192.0.2.1)")
	f.StringVarP(&opts.username, "user", "u", "", "username")
	f.StringVar(&opts.password, "password", "", "password (use PANOS_PASSWORD instead)")
	f.StringVar(&opts.proxy, "proxy", "", `outbound proxy URL, or "direct" to ignore proxy environment variables`)
	f.BoolVar(&opts.insecure, "insecure", false, "skip TLS certificate verification (DANGEROUS)")
	f.DurationVar(&opts.timeout, "timeout", 0, "request timeout (default 60s)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (empty = no logging)")
	f.StringVar(&opts.logFile, "log-file", "", "write logs to a rotated file instead of stderr")

	return cmd
}

// resolveProfile merges defaults, the profile file, the environment and
// the flags that were explicitly set.
func resolveProfile(cmd *cobra.Command, opts *options) (config.Profile, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return config.Profile{}, err
	}

	p := config.Default()
	if opts.configPath != "" {
		var err error
		if p, err = config.Load(opts.configPath); err != nil {
			return p, err
		}
	}
	if err := p.ApplyEnv(config.DefaultEnv); err != nil {
		return p, err
	}

	f := cmd.Flags()
	if f.Changed("url") {
		p.URL = opts.url
	}
	if f.Changed("user") {
		p.Username = opts.username
	}
	if f.Changed("password") {
		p.Password = opts.password
	}
	if f.Changed("proxy") {
		p.Proxy = opts.proxy
	}
	if f.Changed("insecure") {
		p.Insecure = opts.insecure
	}
	if f.Changed("timeout") {
		p.Timeout = opts.timeout
	}
	if f.Changed("log-level") {
		p.Logging.Level = opts.logLevel
	}
	if f.Changed("log-file") {
		p.Logging.File = opts.logFile
	}
	return p, nil
}

func run(cmd *cobra.Command, opts *options) error {
	p, err := resolveProfile(cmd, opts)
	if err != nil {
		return &usageError{err: err}
	}

	if p.Password == "" && p.URL != "" && p.Username != "" {
		if p.Password, err = readPassword(cmd.ErrOrStderr()); err != nil {
			return &usageError{err: err}
		}
	}
	if err := p.Validate(); err != nil {
		return &usageError{err: err}
	}

	logger, closeLog, err := newLogger(p.Logging, cmd.ErrOrStderr())
	if err != nil {
		return &usageError{err: err}
	}
	defer closeLog()

	if p.Insecure {
		fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: TLS certificate verification disabled. This is insecure and should only be used for testing.")
	}

	conn, err := p.Builder().WithLogger(logger).Build(cmd.Context())
	if err != nil {
		return err
	}

	logger.Info("api key generated", "connection", conn)
	fmt.Fprintln(cmd.OutOrStdout(), conn.APIKey())
	return nil
}

// newLogger builds the CLI logger. Output is always passed through the
// redacting handler.
func newLogger(cfg config.LoggingConfig, stderr io.Writer) (*slog.Logger, func(), error) {
	if cfg.Level == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", cfg.Level)
	}

	w := stderr
	closeFn := func() {}
	if cfg.File != "" {
		rf, err := plog.NewRotatingFile(cfg.File, int64(cfg.MaxSizeMB)*1024*1024, cfg.MaxBackups)
		if err != nil {
			return nil, nil, err
		}
		w = rf
		closeFn = func() { _ = rf.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	return slog.New(plog.NewRedactingHandler(slog.NewTextHandler(w, opts))), closeFn, nil
}

// usageError marks failures that happen before the handshake starts.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue):
		return exitUsage
	case client.IsConfigError(err):
		return exitConfig
	case client.IsAuthenticationError(err):
		return exitAuth
	case xmlapi.IsProtocolError(err):
		return exitProtocol
	case client.IsTransportError(err):
		return exitTransport
	default:
		return exitUsage
	}
}
