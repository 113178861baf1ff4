// Package console implements the single-threaded read-eval loop over the
// framework verbs. One command is fully processed before the next line is
// read, so session mutation is never contended; only backend waits leave
// the loop's goroutine, and those stay cancellable via Ctrl-C.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/maurorisonho/Houdinis-sub002/internal/credential"
	"github.com/maurorisonho/Houdinis-sub002/internal/session"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

const banner = `
        .... Houdinis ....
  quantum-era security testing console
`

// Console drives one interactive session. All operator-visible errors are
// caught at this boundary and rendered as a single-line message; nothing
// propagates far enough to terminate the loop.
type Console struct {
	session *session.Session
	creds   credential.Provider
	logger  *slog.Logger
	version string

	in  io.Reader
	out io.Writer

	// interrupt delivers Ctrl-C while a run is waiting on a backend.
	interrupt chan os.Signal

	// interactive controls banner and prompt output; piped input runs the
	// same verbs without the decoration.
	interactive bool

	exiting bool
}

// New creates a console over the given session.
func New(sess *session.Session, creds credential.Provider, logger *slog.Logger, version string, in io.Reader, out io.Writer) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{
		session:     sess,
		creds:       creds,
		logger:      logger,
		version:     version,
		in:          in,
		out:         out,
		interrupt:   make(chan os.Signal, 1),
		interactive: true,
	}
}

// SetInteractive toggles banner and prompt rendering. The enclosing command
// disables it when stdin is not a terminal.
func (c *Console) SetInteractive(v bool) {
	c.interactive = v
}

// Interrupt returns the channel the enclosing command wires SIGINT into.
func (c *Console) Interrupt() chan<- os.Signal {
	return c.interrupt
}

// Run reads and dispatches commands until `exit` or EOF. It returns nil on
// a clean exit; the process exit code belongs to the caller.
func (c *Console) Run(ctx context.Context) error {
	if c.interactive {
		fmt.Fprintln(c.out, styleBanner.Render(banner))
		c.printfDim("%d modules loaded, %d backends registered; `help` lists commands",
			c.session.Registry().Len(), len(c.session.Backends().List()))
	}

	scanner := bufio.NewScanner(c.in)
	for {
		if c.exiting || ctx.Err() != nil {
			return nil
		}

		if c.interactive {
			fmt.Fprint(c.out, c.prompt())
		}
		if !scanner.Scan() {
			// EOF (Ctrl-D or closed pipe) leaves the console cleanly.
			if c.interactive {
				fmt.Fprintln(c.out)
			}
			return scanner.Err()
		}

		c.Dispatch(ctx, scanner.Text())

		// Drain any interrupt that arrived between commands so it cannot
		// cancel the next run spuriously.
		select {
		case <-c.interrupt:
		default:
		}
	}
}

// Dispatch parses and executes one input line. Unknown verbs and argument
// errors are reported to the operator without terminating the loop.
func (c *Console) Dispatch(ctx context.Context, line string) {
	cmd, err := Parse(line)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			return
		}
		c.printError(err)
		return
	}

	h, ok := findHandler(cmd.Verb)
	if !ok {
		c.printError(types.NewError(types.COMMAND_UNKNOWN,
			fmt.Sprintf("unknown command: %s (try `help`)", cmd.Verb)))
		return
	}

	if err := h.run(c, ctx, cmd.Args); err != nil {
		c.printError(err)
	}
}

// prompt renders the Metasploit-style prompt, naming the active module.
func (c *Console) prompt() string {
	if m := c.session.ActiveModule(); m != nil {
		return stylePrompt.Render("houdinis ") +
			styleModule.Render("("+m.ID()+")") +
			stylePrompt.Render(" > ")
	}
	return stylePrompt.Render("houdinis > ")
}

// printError renders any error as a single line. HoudinisError codes keep
// their [CODE] prefix; wrapped causes appear as dimmed detail. Raw stack
// traces never reach the operator.
func (c *Console) printError(err error) {
	var herr *types.HoudinisError
	if errors.As(err, &herr) {
		fmt.Fprintln(c.out, styleError.Render(fmt.Sprintf("[%s] %s", herr.Code, herr.Message)))
		if herr.Cause != nil {
			c.printfDim("  detail: %v", herr.Cause)
		}
		return
	}
	fmt.Fprintln(c.out, styleError.Render(err.Error()))
}

func (c *Console) printfPlain(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) printfInfo(format string, args ...any) {
	fmt.Fprintln(c.out, styleInfo.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) printfSuccess(format string, args ...any) {
	fmt.Fprintln(c.out, styleSuccess.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) printfDim(format string, args ...any) {
	fmt.Fprintln(c.out, styleDim.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) printHeader(text string) {
	fmt.Fprintln(c.out, styleHeader.Render(strings.TrimRight(text, " ")))
}
