// Rigbridgectl is the command-line client for monitoring and controlling a
// running rigbridged instance. It connects over HTTP and WebSocket to query
// status, send rig commands, and stream live events from the daemon.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/large-farva/rigbridge/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8080", "Rigbridge daemon URL (e.g. http://192.168.8.1:8080)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter value,status)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --ms are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// ── Query commands ────────────────────────────────────────────
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "values":
		err = ctl.Values(*host, *jsonOut)

	case "config":
		err = ctl.Config(*host, *jsonOut)

	case "logs":
		opts := ctl.LogsOptions{JSON: *jsonOut}
		logFlags := pflag.NewFlagSet("logs", pflag.ContinueOnError)
		logFlags.StringVar(&opts.Level, "level", "", "Filter by log level (info, warn, error)")
		logFlags.StringVar(&opts.Component, "component", "", "Filter by component (riglink, poller, relay, ws, demo)")
		logFlags.IntVar(&opts.Limit, "limit", 0, "Limit number of log entries shown")
		logFlags.BoolVar(&opts.Tail, "tail", false, "Stream live log events (like watch --filter log)")
		_ = logFlags.Parse(subArgs)
		err = ctl.Logs(*host, opts)

	// ── Control commands ──────────────────────────────────────────
	case "send":
		err = ctl.Send(*host, strings.Join(subArgs, " "), *jsonOut)

	case "poll":
		err = ctl.Poll(*host, *jsonOut)

	case "pause":
		pauseFlags := pflag.NewFlagSet("pause", pflag.ContinueOnError)
		ms := pauseFlags.Int64("ms", 5000, "Pause duration in milliseconds")
		_ = pauseFlags.Parse(subArgs)
		err = ctl.Pause(*host, *ms, *jsonOut)

	case "reconnect":
		err = ctl.Reconnect(*host, *jsonOut)

	// ── Live streaming ────────────────────────────────────────────
	case "watch":
		err = ctl.Watch(*host, ctl.WatchOptions{
			Filter: *filter,
			JSON:   *jsonOut,
		})

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`
  rigbridgectl: rigbridge control CLI

  USAGE
    rigbridgectl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show link state, poll health, and uptime
    health          Check daemon and component health
    version         Show CLI and daemon version information
    values          Show the last values read from the rig
    config          Show the daemon's running configuration
    logs            Show recent daemon log messages

  COMMANDS (control)
    send CMD        Relay a raw command to the rig (e.g. wFA7074000;)
    poll            Query the rig immediately
    pause           Suspend scheduled polling
    reconnect       Drop and redial the rig connection

  COMMANDS (live)
    watch           Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8080)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    logs:
        --level LEVEL       Filter by log level (info, warn, error)
        --component NAME    Filter by component
        --limit N           Limit number of log entries shown
        --tail              Stream live log events

    pause:
        --ms N              Pause duration in milliseconds (default: 5000)

  EXAMPLES
    rigbridgectl status
    rigbridgectl --json values
    rigbridgectl --host http://192.168.8.1:8080 watch
    rigbridgectl send 'wFA7074000;'
    rigbridgectl pause --ms 10000
    rigbridgectl logs --component riglink --limit 20
    rigbridgectl watch --filter value,status

`)
}
