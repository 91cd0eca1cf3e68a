package ctl

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Build-time variables set via -ldflags.
var (
	Version   = "dev"
	GoVersion = "unknown"
)

type daemonBuild struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	BuiltAt   string `json:"built_at"`
}

type rigTarget struct {
	Addr string `json:"addr"`
	Link string `json:"link"`
	Mode string `json:"mode"`
}

// versionReport is what `rigbridgectl version` shows: both builds and the
// rig the daemon is bridging.
type versionReport struct {
	CLI struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
	} `json:"cli"`
	Daemon *daemonBuild `json:"daemon,omitempty"`
	Rig    *rigTarget   `json:"rig,omitempty"`
	Error  string       `json:"daemon_error,omitempty"`
}

// VersionInfo prints the CLI build, the daemon build from GET /api/version,
// and the rig target and link state from GET /api/status.
func VersionInfo(baseURL string, jsonOutput bool) error {
	rep := fetchVersion(strings.TrimRight(baseURL, "/"))
	if jsonOutput {
		return printJSON(rep)
	}
	writeVersion(os.Stdout, rep)
	return nil
}

func fetchVersion(baseURL string) versionReport {
	var rep versionReport
	rep.CLI.Version = Version
	rep.CLI.GoVersion = GoVersion

	var build daemonBuild
	if err := getJSON(baseURL, "/api/version", &build); err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Daemon = &build

	var st StatusResponse
	if err := getJSON(baseURL, "/api/status", &st); err == nil {
		rep.Rig = &rigTarget{Addr: st.Rig, Link: st.Link, Mode: st.Mode}
	}
	return rep
}

func writeVersion(w io.Writer, rep versionReport) {
	row := func(label, value string) {
		fmt.Fprintf(w, "  %-12s %s\n", colorize(dim, label), value)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, header("  RIGBRIDGE VERSION"))
	fmt.Fprintln(w, rule(38))
	row("CLI:", fmt.Sprintf("%s (%s)", rep.CLI.Version, rep.CLI.GoVersion))
	if rep.Daemon == nil {
		row("Daemon:", colorize(red, "unreachable: "+rep.Error))
	} else {
		row("Daemon:", fmt.Sprintf("%s (%s)", rep.Daemon.Version, rep.Daemon.GoVersion))
		row("Built:", rep.Daemon.BuiltAt)
		if rep.Daemon.Version != rep.CLI.Version {
			row("", colorize(yellow, "CLI and daemon versions differ"))
		}
	}
	if rep.Rig != nil {
		row("Rig:", fmt.Sprintf("%s (%s)", rep.Rig.Addr, rep.Rig.Mode))
		row("Link:", colorize(linkColor(rep.Rig.Link), rep.Rig.Link))
	}
	fmt.Fprintln(w)
}
