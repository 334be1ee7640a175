// Package notify shows the end-of-run outcome to the user.
package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level is the severity of a notification.
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Messages shown at the end of a run.
const (
	MsgFinished          = "Process finished!"
	MsgFinishedWithDupes = "Process finished but duplicates were found and copied with a different name. Check logs."
	MsgFailed            = "Something went wrong"
	MsgRecordFailed      = "There was an error while trying to log the errors found"
)

// Notifier delivers a message at a level.
type Notifier interface {
	Notify(message string, level Level)
}

// Console writes notifications as "[Level] message" lines, coloured by level
// when out is a terminal.
type Console struct {
	out    io.Writer
	colors map[Level]*color.Color
}

// NewConsole creates a Console notifier writing to out.
func NewConsole(out io.Writer) *Console {
	c := &Console{
		out: out,
		colors: map[Level]*color.Color{
			Info:    color.New(color.FgGreen, color.Bold),
			Warning: color.New(color.FgYellow, color.Bold),
			Error:   color.New(color.FgRed, color.Bold),
		},
	}

	useColor := isTerminal(out)
	for _, col := range c.colors {
		if useColor {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}

	return c
}

// Notify writes message to the console.
func (c *Console) Notify(message string, level Level) {
	tag := "[" + level.String() + "]"
	if col, ok := c.colors[level]; ok {
		tag = col.Sprint(tag)
	}
	fmt.Fprintf(c.out, "%s %s\n", tag, message)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
