package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/kioskwm/internal/compositor"
	"github.com/1broseidon/kioskwm/internal/ipc"
	"github.com/1broseidon/kioskwm/internal/kiosk"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// styled reports whether w is a terminal that should get colours.
func styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func render(w io.Writer, s lipgloss.Style, text string) string {
	if !styled(w) {
		return text
	}
	return s.Render(text)
}

func printStatus(w io.Writer, st *ipc.StatusData) {
	running := "no"
	if st.DaemonRunning {
		running = render(w, okStyle, "yes")
	}
	focus := "-"
	if st.Focused != 0 {
		focus = fmt.Sprintf("0x%x", st.Focused)
	}
	configFile := st.ConfigFile
	if configFile == "" {
		configFile = "-"
	}

	rows := [][2]string{
		{"daemon_running", running},
		{"uptime", (time.Duration(st.UptimeSeconds) * time.Second).String()},
		{"outputs", fmt.Sprint(st.Outputs)},
		{"windows", fmt.Sprintf("%d (%d mapped)", st.Windows, st.MappedWindows)},
		{"focused", focus},
		{"config_file", configFile},
	}
	for _, r := range rows {
		label := render(w, labelStyle, fmt.Sprintf("%-15s", r[0]+":"))
		fmt.Fprintf(w, "%s %s\n", label, render(w, valueStyle, r[1]))
	}
}

func printOutputs(w io.Writer, outputs []kiosk.OutputInfo) {
	if len(outputs) == 0 {
		fmt.Fprintln(w, "no outputs")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tGEOMETRY\tWINDOWS\tAPP_IDS")
	for _, o := range outputs {
		apps := o.AppIDs
		if apps == "" {
			apps = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%dx%d+%d+%d\t%d\t%s\n",
			o.ID, o.Name, o.Width, o.Height, o.X, o.Y, o.Windows, apps)
	}
	tw.Flush()
}

func printWindows(w io.Writer, windows []kiosk.WindowInfo) {
	if len(windows) == 0 {
		fmt.Fprintln(w, "no windows")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAPP_ID\tMODE\tOUTPUT\tPARENT\tFOCUS\tTITLE")
	for _, win := range windows {
		parent := "-"
		if win.Parent != compositor.NoSurface {
			parent = fmt.Sprintf("0x%x", uint32(win.Parent))
		}
		output := "-"
		if win.Output != compositor.NoOutput {
			output = fmt.Sprint(win.Output)
		}
		focus := ""
		if win.Activated {
			focus = "*"
		}
		mode := win.Mode
		if !win.Mapped {
			mode += " (unmapped)"
		}
		fmt.Fprintf(tw, "0x%x\t%s\t%s\t%s\t%s\t%s\t%s\n",
			uint32(win.SurfaceID), orDash(win.AppID), mode, output, parent, focus,
			strings.ReplaceAll(win.Title, "\n", " "))
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
