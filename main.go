package main

import (
	"runtime"

	"tuner/cmd"
	applog "tuner/internal/log"
	"tuner/pkg/build"
)

// main is the entry point for the tuner.
//
// Startup (cold path): build information, runtime settings, command line.
// The selected command then owns the hot path (PortAudio callbacks feeding
// the pitch detector) and its own shutdown on SIGINT or SIGTERM.
func main() {
	// Development builds run without ldflags and keep the defaults.
	if err := build.Initialize(); err != nil && !build.Current().IsDev() {
		applog.Warnf("Incomplete build info: %v", err)
	}

	// One thread for the audio callback, one for transports and I/O.
	runtime.GOMAXPROCS(2)

	if err := cmd.Execute(); err != nil {
		applog.Fatalf("%v", err)
	}
}
