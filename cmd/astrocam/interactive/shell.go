// Package interactive provides the interactive command-line interface
// for astrocam.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/cameraestellar/astrocam-go/pkg/capture"
	"github.com/cameraestellar/astrocam-go/pkg/device"
)

// Camera is the simulator control surface the shell exposes.
type Camera interface {
	Characteristics() device.Characteristics
	SimulateUnreachable(unreachable bool)
	SimulateFrameFailure(index int)
	ClearFailures()
}

// Shell handles interactive mode for astrocam.
type Shell struct {
	ctrl   *capture.Controller
	camera Camera
	rl     *readline.Instance

	outMu sync.Mutex
	out   io.Writer
}

// New creates a shell reading from the terminal.
func New(ctrl *capture.Controller, camera Camera) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "astrocam> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s := newShell(ctrl, camera, rl.Stdout())
	s.rl = rl
	return s, nil
}

// newShell creates a shell writing to out, without a terminal.
func newShell(ctrl *capture.Controller, camera Camera, out io.Writer) *Shell {
	s := &Shell{ctrl: ctrl, camera: camera, out: out}
	ctrl.OnStateChange(s.handleChange)
	ctrl.OnFrame(s.handleFrame)
	return s
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				// ^C cancels a running countdown, otherwise keeps the prompt.
				s.ctrl.Cancel()
				continue
			}
			s.println("Exiting...")
			cancel()
			return
		}

		if s.Exec(line) {
			cancel()
			return
		}
	}
}

// Exec runs one command line. It returns true when the shell should exit.
func (s *Shell) Exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "status", "s":
		s.cmdStatus()

	case "iso":
		s.cmdISO(args)

	case "exposure", "exp", "e":
		s.cmdExposure(args)

	case "focus", "f":
		s.cmdFocus(args)

	case "auto":
		s.cmdAuto(args)

	case "capture", "shoot", "c":
		s.cmdCapture(args)

	case "cancel", "x":
		s.ctrl.Cancel()

	case "camera", "cam":
		s.println(s.camera.Characteristics().String())

	case "fail":
		s.cmdFail(args)

	case "quit", "exit", "q":
		s.println("Exiting...")
		return true

	default:
		s.printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	s.println(`
Astrocam Commands:
  Exposure:
    iso [value]          - Show or set ISO
    exposure [seconds]   - Show or set total exposure
    focus [distance]     - Show or set focus distance (0 = infinity)
    auto [on|off]        - Show or set automatic exposure

  Session:
    capture [delay]      - Capture after a countdown of delay seconds
    cancel               - Cancel the countdown
    status               - Show session status

  Simulation:
    camera               - Show camera characteristics
    fail <frame>         - Fail the given frame (0-based) of the next captures
    fail unreachable     - Make the camera unreachable
    fail clear           - Clear injected failures

  General:
    help                 - Show this help
    quit                 - Exit`)
}

func (s *Shell) cmdStatus() {
	snap := s.ctrl.Snapshot()
	s.printf("Session:   %d (%s)\n", snap.SessionID, snap.State)
	if snap.State == capture.StateCountingDown {
		s.printf("Countdown: %d\n", snap.RemainingCountdown)
	}
	if snap.Plan != nil {
		s.printf("Plan:      %s\n", snap.Plan)
		s.printf("Frames:    %d issued, %d completed\n", snap.FramesIssued, snap.FramesCompleted)
	}
	if snap.LastError != nil {
		s.printf("Error:     %v\n", snap.LastError)
	}
	s.printf("Exposure:  %s\n", snap.Config)
}

func (s *Shell) cmdISO(args []string) {
	if len(args) == 0 {
		s.printf("ISO %.0f\n", s.ctrl.Store().ISO())
		return
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		s.printf("Invalid ISO: %s\n", args[0])
		return
	}
	s.printf("ISO %.0f\n", s.ctrl.SetISO(v))
}

func (s *Shell) cmdExposure(args []string) {
	if len(args) == 0 {
		s.printf("Exposure %v\n", s.ctrl.Store().Exposure())
		return
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		s.printf("Invalid exposure: %s\n", args[0])
		return
	}
	s.printf("Exposure %v\n", s.ctrl.SetExposureSeconds(v))
}

func (s *Shell) cmdFocus(args []string) {
	if len(args) == 0 {
		s.printf("Focus %.2f\n", s.ctrl.Store().FocusDistance())
		return
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		s.printf("Invalid focus distance: %s\n", args[0])
		return
	}
	s.printf("Focus %.2f\n", s.ctrl.SetFocusDistance(v))
}

func (s *Shell) cmdAuto(args []string) {
	if len(args) == 0 {
		s.printf("Auto exposure %s\n", onOff(s.ctrl.Store().AutoExposure()))
		return
	}
	var auto bool
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		auto = true
	case "off", "false", "0":
	default:
		s.println("Usage: auto [on|off]")
		return
	}
	if err := s.ctrl.SetAutoExposure(auto); err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	s.printf("Auto exposure %s\n", onOff(auto))
}

func (s *Shell) cmdCapture(args []string) {
	delay := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			s.printf("Invalid delay: %s\n", args[0])
			return
		}
		delay = v
	}
	if st := s.ctrl.State(); st.Busy() {
		s.printf("Busy (%s)\n", st)
		return
	}
	if err := s.ctrl.RequestCapture(delay); err != nil {
		s.printf("Error: %v\n", err)
	}
}

func (s *Shell) cmdFail(args []string) {
	if len(args) == 0 {
		s.println("Usage: fail <frame>|unreachable|clear")
		return
	}
	switch args[0] {
	case "unreachable":
		s.camera.SimulateUnreachable(true)
		s.println("Camera unreachable")
	case "clear":
		s.camera.SimulateUnreachable(false)
		s.camera.ClearFailures()
		s.println("Failures cleared")
	default:
		i, err := strconv.Atoi(args[0])
		if err != nil || i < 0 {
			s.printf("Invalid frame: %s\n", args[0])
			return
		}
		s.camera.SimulateFrameFailure(i)
		s.printf("Frame %d will fail\n", i)
	}
}

func (s *Shell) handleChange(ch capture.Change) {
	switch ch.New {
	case capture.StateCountingDown:
		s.printf("[%d] %d...\n", ch.Session, ch.Remaining)
	case capture.StateCapturing:
		s.printf("[%d] capturing\n", ch.Session)
	case capture.StateCompleted:
		if ch.Plan != nil {
			s.printf("[%d] completed: %s\n", ch.Session, ch.Plan)
			return
		}
		s.printf("[%d] completed\n", ch.Session)
	case capture.StateFailed:
		s.printf("[%d] FAILED: %v\n", ch.Session, ch.Err)
	case capture.StateIdle:
		if ch.Old == capture.StateCountingDown {
			s.printf("[%d] cancelled\n", ch.Session)
		}
	}
}

func (s *Shell) handleFrame(fe capture.FrameEvent) {
	if fe.Kind != capture.EventCaptureEnded {
		return
	}
	if fe.Err != nil {
		s.printf("[%d] frame %d/%d failed: %v\n", fe.Tag.Session, fe.Tag.Frame+1, fe.Count, fe.Err)
		return
	}
	s.printf("[%d] frame %d/%d done\n", fe.Tag.Session, fe.Tag.Frame+1, fe.Count)
}

func (s *Shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(a ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, a...)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
