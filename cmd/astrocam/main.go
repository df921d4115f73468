// Command astrocam drives a capture session against a simulated camera.
//
// Usage:
//
//	astrocam <command> [flags]
//
// Commands:
//
//	shell    Interactive session (countdown, exposure, stacking)
//	capture  Take one exposure and exit
//	serve    Run the remote shutter API and advertise it via mDNS
//	find     Browse for remote shutters on the local network
//
// Examples:
//
//	# 30 s exposure after a 3 s countdown, stacked on a 10 s camera
//	astrocam capture --delay 3 --exposure 30 --max-exposure 10s
//
//	# Remote shutter with a capture trace
//	astrocam serve --trace session.clog --mdns
package main

import (
	"os"

	"github.com/cameraestellar/astrocam-go/cmd/astrocam/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
