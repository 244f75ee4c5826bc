package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/cli"
	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/dialog"
	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/kisslink"
	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/sched"
)

const defaultListen = ":8090"

var (
	// Command-line overrides
	flagListen string
	flagCodec  string
	flagScript string
	flagStrip  int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the kissing machine",
	Long: `Run the dialog controller and serve the device link.

The device connects to ws://<listen>/link, sends button and speech events
and receives speak, LED and cue commands. The LED strip and the dialog
state are mirrored on stdout. A session starts when the device sends
"start".`,
	RunE: runMachine,
}

func init() {
	runCmd.Flags().StringVar(&flagListen, "listen", "", "device link address (default "+defaultListen+")")
	runCmd.Flags().StringVar(&flagCodec, "codec", "", "preferred link codec: json or msgpack")
	runCmd.Flags().StringVar(&flagScript, "script", "", "YAML dialog script override")
	runCmd.Flags().IntVar(&flagStrip, "strip", cli.DefaultStripLength, "number of LEDs in the console mirror")
}

func runMachine(cmd *cobra.Command, args []string) error {
	kctx, err := getContext()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if flagScript != "" {
		kctx.Script = flagScript
	}
	listen := kctx.Listen
	if flagListen != "" {
		listen = flagListen
	}
	if listen == "" {
		listen = defaultListen
	}
	codec := kctx.Codec
	if flagCodec != "" {
		codec = flagCodec
	}
	subprotocol := kisslink.SubprotocolJSON
	switch codec {
	case "", "json":
	case "msgpack":
		subprotocol = kisslink.SubprotocolMsgpack
	default:
		return fmt.Errorf("unknown codec %q, want json or msgpack", codec)
	}

	dcfg, err := kctx.DialogConfig()
	if err != nil {
		return err
	}
	script, err := kctx.LoadScript()
	if err != nil {
		return err
	}

	logger := slog.Default()
	loop := sched.NewLoop(64)
	link := kisslink.NewServer(loop,
		kisslink.WithLogger(kisslink.SlogLogger(logger)),
		kisslink.WithPreferredCodec(subprotocol),
	)
	console := cli.NewConsole(cmd.OutOrStdout(), flagStrip)

	ctrl, err := dialog.New(loop, dcfg,
		dialog.Devices{
			Speaker: link,
			LEDs:    dialog.TeeLEDs(link, console),
			Cue:     link,
		},
		dialog.WithLogger(dialog.SlogLogger(logger)),
		dialog.WithScript(script),
		dialog.WithObserver(func(s dialog.Session) {
			link.Observe(s)
			console.Observe(s)
		}),
	)
	if err != nil {
		return err
	}
	link.Bind(ctrl)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	errCh := make(chan error, 2)
	go func() {
		if err := loop.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	httpSrv := &http.Server{Addr: listen, Handler: link}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("device link: %w", err)
		}
	}()

	cli.PrintSuccess(cmd.OutOrStdout(), "Device link: ws://%s/link (%s preferred)", displayAddr(listen), subprotocol)
	fmt.Fprintln(cmd.OutOrStdout(), "Waiting for the device to send start. Press Ctrl+C to exit")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case <-sigCh:
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := loop.Call(shutdownCtx, ctrl.Stop); err != nil {
		logger.Warn("stop dialog", "error", err)
	}
	link.Close()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown device link", "error", err)
	}
	cancelRun()
	loop.Close()
	return runErr
}

// displayAddr turns ":8090" into "localhost:8090".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
