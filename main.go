package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"randscan/config"
	"randscan/logging"
	"randscan/netutil"
	"randscan/output"
	"randscan/scanner"
)

// Exit codes.
const (
	exitOK          = 0
	exitScanFailed  = 1
	exitUsage       = 2
	exitEnv         = 4 // resolution or output failure
	exitInterrupted = 130
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitf(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.code != exitInterrupted {
			fmt.Fprintf(stderr, " ERROR: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	fmt.Fprintln(stderr, cmd.UsageString())
	return exitUsage
}

func newRootCommand() *cobra.Command {
	var (
		configFile     string
		verbosityCount int
	)

	cmd := &cobra.Command{
		Use:   "randscan [flags] [target]",
		Short: "Scan the TCP ports of a host in random order",
		Long: `randscan probes every port in the configured range exactly once, in a
random order, with a bounded number of concurrent connect attempts, and
prints the open ports when done. Without a target argument it asks for one.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), configFile); err != nil {
				return exitf(exitUsage, "%w", err)
			}
			cfg := mgr.Get()

			logger, err := logging.Setup(cmd.ErrOrStderr(), cfg.Log, verbosityCount)
			if err != nil {
				return exitf(exitUsage, "%w", err)
			}
			logger = logger.With().Str("command", "scan").Logger()

			target := ""
			if len(args) == 1 {
				target = args[0]
			} else {
				target, err = askForTarget(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return exitf(exitUsage, "%w", err)
				}
			}
			return runScan(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, target, logger)
		},
	}

	config.BindFlags(cmd.Flags())
	cmd.Flags().StringVar(&configFile, "config", "", "configuration file (YAML)")
	cmd.Flags().CountVarP(&verbosityCount, "verbosity", "v", "increase logging verbosity (repeatable)")

	return cmd
}

// askForTarget prompts until a non-empty target is entered.
func askForTarget(in io.Reader, prompt io.Writer) (string, error) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(prompt, "Hostname or IP address to scan: ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", errors.New("no target given")
		}
		if t := strings.TrimSpace(sc.Text()); t != "" {
			return t, nil
		}
	}
}

func runScan(ctx context.Context, stdout, stderr io.Writer, cfg config.Config, target string, logger zerolog.Logger) error {
	ports, err := cfg.PortList()
	if err != nil {
		return exitf(exitUsage, "invalid ports spec: %w", err)
	}

	ip, err := netutil.ResolveTarget(ctx, target, cfg.IPv6)
	if err != nil {
		return exitf(exitEnv, "hostname could not be resolved: %w", err)
	}

	concurrency := cfg.Concurrency
	if limit, err := netutil.OpenFileLimit(); err != nil {
		logger.Warn().Err(err).Msg("cannot read open file limit")
	} else if c := netutil.ClampConcurrency(concurrency, limit); c < concurrency {
		logger.Warn().Int("requested", concurrency).Int("using", c).Uint64("nofile", limit).
			Msg("concurrency lowered to fit the open file limit")
		concurrency = c
	}

	country := ""
	if cfg.GeoIP.Database != "" {
		geo, err := netutil.OpenGeo(cfg.GeoIP.Database)
		if err != nil {
			logger.Warn().Err(err).Msg("geoip disabled")
		} else {
			defer geo.Close()
			country = geo.Country(ip)
		}
	}

	var progress *output.ProgressLine
	opts := []scanner.Option{scanner.WithLogger(logger)}
	if showProgress(cfg.Progress, stderr) {
		progress = output.NewProgressLine(stderr)
		opts = append(opts, scanner.WithProgress(progress))
	}

	mgr := scanner.NewManager(scanner.Config{
		Target:      target,
		IP:          ip,
		Ports:       ports,
		Timeout:     cfg.Timeout,
		Concurrency: concurrency,
		Seed:        cfg.Seed,
	}, opts...)

	if strings.EqualFold(cfg.Output.Format, output.FormatText) {
		output.PrintHeader(stderr, output.Header{Target: target, IP: ip.String(), Country: country, Start: time.Now()})
	}

	res, err := mgr.Run(ctx)
	if err != nil {
		return exitf(exitScanFailed, "scan failed: %w", err)
	}
	if progress != nil {
		progress.Finish(res)
	}

	rep := output.NewReport(res, country)
	var buf bytes.Buffer
	if err := output.Render(&buf, rep, cfg.Output.Format); err != nil {
		return exitf(exitScanFailed, "render report: %w", err)
	}
	if _, err := stdout.Write(buf.Bytes()); err != nil {
		return exitf(exitEnv, "failed to write to stdout: %w", err)
	}
	if cfg.Output.File != "" {
		if err := output.WriteReport(cfg.Output.File, rep, cfg.Output.Format); err != nil {
			return exitf(exitEnv, "failed to write output file: %w", err)
		}
		logger.Info().Str("path", cfg.Output.File).Msg("report written")
	}

	if res.Canceled {
		fmt.Fprintln(stderr, " ABORT: Exiting Program !!!!")
		return &exitError{code: exitInterrupted, err: context.Canceled}
	}
	return nil
}

func showProgress(mode string, w io.Writer) bool {
	switch mode {
	case config.ProgressOn:
		return true
	case config.ProgressOff:
		return false
	}
	f, ok := w.(*os.File)
	return ok && output.IsTerminal(f)
}
