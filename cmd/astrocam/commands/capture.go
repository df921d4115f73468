package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cameraestellar/astrocam-go/pkg/capture"
)

func captureCmd() *cobra.Command {
	var (
		delay    int
		iso      float64
		exposure float64
		focus    float64
		auto     bool
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Take one exposure and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cfg, setupLogging(cfg.LogLevel))
			if err != nil {
				return err
			}
			defer rt.Close()

			flags := cmd.Flags()
			if flags.Changed("auto") {
				if err := rt.ctrl.SetAutoExposure(auto); err != nil {
					return err
				}
			}
			if flags.Changed("iso") {
				rt.ctrl.SetISO(iso)
			}
			if flags.Changed("exposure") {
				rt.ctrl.SetExposureSeconds(exposure)
			}
			if flags.Changed("focus") {
				rt.ctrl.SetFocusDistance(focus)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runCapture(ctx, rt.ctrl, delay, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&delay, "delay", "d", 0, "countdown in seconds")
	cmd.Flags().Float64Var(&iso, "iso", 0, "sensor sensitivity")
	cmd.Flags().Float64VarP(&exposure, "exposure", "e", 0, "total exposure in seconds")
	cmd.Flags().Float64Var(&focus, "focus", 0, "focus distance (0 = infinity)")
	cmd.Flags().BoolVar(&auto, "auto", false, "automatic exposure")
	return cmd
}

// runCapture requests one capture and reports progress to w until the
// session ends. Interrupting during the countdown cancels it.
func runCapture(ctx context.Context, ctrl *capture.Controller, delay int, w io.Writer) error {
	done := make(chan capture.Change, 1)
	ctrl.OnStateChange(func(ch capture.Change) {
		printChange(w, ch)
		if ch.New == capture.StateCompleted || ch.New == capture.StateFailed {
			select {
			case done <- ch:
			default:
			}
		}
	})
	ctrl.OnFrame(func(fe capture.FrameEvent) {
		printFrame(w, fe)
	})

	fmt.Fprintf(w, "Exposure: %s\n", ctrl.Store().Config())
	if err := ctrl.RequestCapture(delay); err != nil {
		return err
	}

	for {
		select {
		case ch := <-done:
			if ch.New == capture.StateFailed {
				return ch.Err
			}
			return nil
		case <-ctx.Done():
			if ctrl.State() == capture.StateCountingDown {
				ctrl.Cancel()
				return fmt.Errorf("countdown cancelled")
			}
			// A capture in flight is not cancellable; wait for it.
			ctx = context.Background()
		}
	}
}

// printChange writes one line per visible transition.
func printChange(w io.Writer, ch capture.Change) {
	switch {
	case ch.New == capture.StateCountingDown:
		fmt.Fprintf(w, "  %d...\n", ch.Remaining)
	case ch.New == capture.StateCapturing:
		fmt.Fprintln(w, "Capturing")
	case ch.New == capture.StateFailed:
		fmt.Fprintf(w, "FAILED: %v\n", ch.Err)
	case ch.New == capture.StateCompleted && ch.Plan != nil:
		fmt.Fprintf(w, "Completed: %s\n", ch.Plan)
	case ch.New == capture.StateCompleted:
		fmt.Fprintln(w, "Completed")
	}
}

func printFrame(w io.Writer, fe capture.FrameEvent) {
	switch fe.Kind {
	case capture.EventCaptureStarted:
		fmt.Fprintf(w, "  frame %d/%d exposing\n", fe.Tag.Frame+1, fe.Count)
	case capture.EventCaptureEnded:
		if fe.Err != nil {
			fmt.Fprintf(w, "  frame %d/%d failed: %v\n", fe.Tag.Frame+1, fe.Count, fe.Err)
			return
		}
		fmt.Fprintf(w, "  frame %d/%d done\n", fe.Tag.Frame+1, fe.Count)
	}
}
