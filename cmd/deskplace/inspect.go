package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/1broseidon/deskplace/internal/activation"
	"github.com/1broseidon/deskplace/internal/platform"
	"github.com/1broseidon/deskplace/internal/windows"
)

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskplace monitors [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List monitors in screen order (left to right, then top to bottom).")
		fmt.Fprintln(os.Stderr, "SCREEN is the number rules refer to.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	snap, code := snapshot()
	if snap == nil {
		return code
	}
	if *jsonOut {
		return writeJSON(os.Stdout, snap.Monitors)
	}
	printMonitors(os.Stdout, snap.Monitors)
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output JSON")
	class := fs.String("class", "", "Only list windows whose class matches")
	fold := fs.Bool("i", false, "Match --class case-insensitively")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskplace windows [--class NAME [-i]] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List client windows. CLASS is the value a rule's window field matches.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	snap, code := snapshot()
	if snap == nil {
		return code
	}
	list := filterWindows(snap.Windows, *class, *fold)
	if *jsonOut {
		return writeJSON(os.Stdout, list)
	}
	printWindows(os.Stdout, list)
	return 0
}

func snapshot() (*activation.Snapshot, int) {
	backend, err := openBackend()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, 1
	}
	defer backend.Disconnect()
	return snapshotOf(backend)
}

func snapshotOf(backend platform.Backend) (*activation.Snapshot, int) {
	snap, err := activation.TakeSnapshot(backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, 1
	}
	return snap, 0
}

func filterWindows(list []activation.WindowInfo, class string, fold bool) []activation.WindowInfo {
	if class == "" {
		return list
	}
	mode := windows.Exact
	if fold {
		mode = windows.Insensitive
	}
	var out []activation.WindowInfo
	for _, w := range list {
		if windows.ClassEqual(w.Class, class, mode) {
			out = append(out, w)
		}
	}
	return out
}

func printMonitors(w io.Writer, list []activation.MonitorInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCREEN\tRAW\tNAME\tGEOMETRY")
	for _, m := range list {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%dx%d+%d+%d\n", m.Screen, m.RawIndex, m.Name, m.Width, m.Height, m.X, m.Y)
	}
	_ = tw.Flush()
}

func printWindows(w io.Writer, list []activation.WindowInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCLASS\tWORKSPACE\tSCREEN\tGEOMETRY\tSTATE\tTITLE")
	for _, win := range list {
		workspace := fmt.Sprintf("%d", win.Workspace)
		if win.Workspace < 0 {
			workspace = "all"
		}
		screen := fmt.Sprintf("%d", win.Screen)
		if win.Screen < 0 {
			screen = "-"
		}
		fmt.Fprintf(tw, "0x%x\t%s\t%s\t%s\t%dx%d+%d+%d\t%s\t%s\n",
			win.ID, win.Class, workspace, screen, win.Width, win.Height, win.X, win.Y, windowState(win), win.Title)
	}
	_ = tw.Flush()
}

func windowState(w activation.WindowInfo) string {
	switch {
	case w.Sticky && w.Maximized:
		return "sticky,maximized"
	case w.Sticky:
		return "sticky"
	case w.Maximized:
		return "maximized"
	default:
		return "-"
	}
}

func writeJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
