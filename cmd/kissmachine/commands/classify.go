package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/cli"
	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/lips"
)

var (
	flagTop       []string
	flagBottom    []string
	flagOutput    string
	flagLongPress int
	flagGap       int
	flagDelay     int
)

// classifyCmd replays lip windows through the gesture classifier.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a lip gesture offline",
	Long: `Replay press:release windows, in milliseconds, through the gesture
classifier and print the verdict. Thresholds come from the context and
can be overridden with flags.

Examples:
  # Both lips held together for 900ms
  kissmachine classify --top 0:900 --bottom 50:950

  # One lip after the other
  kissmachine classify --top 0:300 --bottom 400:700 -o json

  # The same lip pressed twice
  kissmachine classify --top 0:200 --top 600:800`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringArrayVar(&flagTop, "top", nil, "top lip window press:release in ms (repeatable)")
	classifyCmd.Flags().StringArrayVar(&flagBottom, "bottom", nil, "bottom lip window press:release in ms (repeatable)")
	classifyCmd.Flags().StringVarP(&flagOutput, "output", "o", "yaml", "output format: yaml or json")
	classifyCmd.Flags().IntVar(&flagLongPress, "long-press", 0, "long press threshold in ms")
	classifyCmd.Flags().IntVar(&flagGap, "gap", 0, "sequential gap in ms")
	classifyCmd.Flags().IntVar(&flagDelay, "delay", 0, "decision delay in ms")
}

type trackView struct {
	Used     bool           `json:"used" yaml:"used"`
	Held     string         `json:"held,omitempty" yaml:"held,omitempty"`
	Kind     lips.PressKind `json:"kind" yaml:"kind"`
	Released bool           `json:"released" yaml:"released"`
}

type classifyView struct {
	Gesture  lips.Gesture `json:"gesture" yaml:"gesture"`
	At       string       `json:"at" yaml:"at"`
	Top      trackView    `json:"top" yaml:"top"`
	Bottom   trackView    `json:"bottom" yaml:"bottom"`
	Together bool         `json:"together" yaml:"together"`
	Overlap  string       `json:"overlap,omitempty" yaml:"overlap,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(flagOutput)
	if err != nil {
		return err
	}
	if len(flagTop) == 0 && len(flagBottom) == 0 {
		return fmt.Errorf("no windows: use --top and/or --bottom")
	}

	kctx, err := getContext()
	if err != nil {
		return err
	}
	dcfg, err := kctx.DialogConfig()
	if err != nil {
		return err
	}
	th := dcfg.Thresholds
	if flagLongPress > 0 {
		th.LongPress = time.Duration(flagLongPress) * time.Millisecond
	}
	if flagGap > 0 {
		th.SequentialGap = time.Duration(flagGap) * time.Millisecond
	}
	if flagDelay > 0 {
		th.DecisionDelay = time.Duration(flagDelay) * time.Millisecond
	}
	if err := th.Validate(); err != nil {
		return err
	}

	var events []lips.Event
	for _, w := range []struct {
		lip     lips.Lip
		windows []string
	}{{lips.Top, flagTop}, {lips.Bottom, flagBottom}} {
		for _, s := range w.windows {
			start, end, err := parseWindow(s)
			if err != nil {
				return fmt.Errorf("--%s: %w", w.lip, err)
			}
			events = append(events, lips.Window(w.lip, start, end)...)
		}
	}

	res := lips.Replay(th, events)
	return cli.Output(newClassifyView(res, th), cli.OutputOptions{
		Format: format,
		Writer: cmd.OutOrStdout(),
	})
}

func newClassifyView(res lips.Result, th lips.Thresholds) classifyView {
	track := func(t lips.Track) trackView {
		v := trackView{Used: t.Used, Kind: t.Kind(th), Released: t.Released()}
		if t.Released() {
			v.Held = cli.FormatDuration(t.Duration)
		}
		return v
	}
	v := classifyView{
		Gesture:  res.Gesture,
		At:       cli.FormatDuration(res.At),
		Top:      track(res.Attempt.Lips[lips.Top]),
		Bottom:   track(res.Attempt.Lips[lips.Bottom]),
		Together: res.Attempt.BothPressed,
	}
	if d, unbounded, ok := res.Attempt.Overlap(); ok && !unbounded {
		v.Overlap = cli.FormatDuration(d)
	}
	return v
}

// parseWindow parses "press:release" in milliseconds.
func parseWindow(s string) (start, end time.Duration, err error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("window %q: want press:release", s)
	}
	p, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil || p < 0 {
		return 0, 0, fmt.Errorf("window %q: bad press time", s)
	}
	r, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil || r < p {
		return 0, 0, fmt.Errorf("window %q: release must be a time at or after press", s)
	}
	return time.Duration(p) * time.Millisecond, time.Duration(r) * time.Millisecond, nil
}
