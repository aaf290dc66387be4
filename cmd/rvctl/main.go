// Rvctl is the command-line client for monitoring and controlling a running
// robotviewd instance. It connects over HTTP and WebSocket to query the
// robot's pose, state, and event log, drive the live-view video session,
// and stream console events from the daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/doyun-lab/robotview/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8080", "Robotview daemon URL (e.g. http://192.168.8.1:8080)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter state,robot_event)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --limit are not rejected.
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
		err = ctl.Status(*host)

	case "health":
		err = ctl.Health(*host)

	case "version":
		err = ctl.Version(*host)

	case "config":
		err = ctl.ConfigShow(*host)

	case "pose":
		err = ctl.Pose(*host, *jsonOut)

	case "state":
		err = ctl.State(*host)

	case "logs":
		var (
			limit int
			tail  bool
		)
		logFlags := pflag.NewFlagSet("logs", pflag.ContinueOnError)
		logFlags.IntVar(&limit, "limit", 0, "Limit number of log entries shown")
		logFlags.BoolVar(&tail, "tail", false, "Stream new robot events live (like watch --filter robot_event)")
		_ = logFlags.Parse(subArgs)
		if tail {
			err = ctl.Watch(*host, ctl.WatchOptions{Filter: []string{"robot_event"}, JSON: *jsonOut})
		} else {
			err = ctl.Logs(*host, limit, *jsonOut)
		}

	// ── Control commands ──────────────────────────────────────────
	case "logs-clear":
		err = ctl.ClearLogs(*host)

	case "video-connect":
		var channel string
		vcFlags := pflag.NewFlagSet("video-connect", pflag.ContinueOnError)
		vcFlags.StringVar(&channel, "channel", "", "Join a specific channel instead of the configured one")
		_ = vcFlags.Parse(subArgs)
		err = ctl.VideoConnect(*host, channel)

	case "video-disconnect":
		err = ctl.VideoDisconnect(*host)

	case "video-status":
		err = ctl.VideoStatus(*host)

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
  rvctl — Robotview control CLI

  USAGE
    rvctl [flags] <command> [command-flags]

  COMMANDS (query)
    status            Show daemon, feed, and robot connectivity
    health            Check daemon and component health
    version           Show daemon version information
    config            Show the daemon's running configuration
    pose              Show the current renderer pose in radians
    state             Show the robot's behavioral state
    logs              Show the robot event log (newest first)

  COMMANDS (control)
    logs-clear        Wipe the robot event log
    video-connect     Open the live-view video session
    video-disconnect  Close the live-view video session
    video-status      Show the live-view session state

  COMMANDS (live)
    watch             Stream console events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8080)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    logs:
        --limit N       Limit number of log entries shown
        --tail          Stream new robot events live

    video-connect:
        --channel ID    Join a specific channel instead of the configured one

  EXAMPLES
    rvctl status
    rvctl --host http://192.168.8.1:8080 watch
    rvctl pose
    rvctl --json pose
    rvctl state
    rvctl logs --limit 10
    rvctl logs-clear
    rvctl video-connect
    rvctl video-connect --channel robot-2
    rvctl video-status
    rvctl watch --filter state,robot_event

`)
}
