// kissmachine runs the artificial kissing machine.
//
// It hosts the dialog controller and the device link the machine's
// browser page or microcontroller bridge connects to, and mirrors the LED
// strip and dialog state on the terminal.
//
// Usage:
//
//	kissmachine run                          # Serve the device link with the current context
//	kissmachine run -c gallery --codec msgpack
//	kissmachine classify --top 0:300 --bottom 50:950
//	kissmachine config context set gallery listen=:9000 silence_timeout=15000
//	kissmachine config context use gallery
//
// Configuration is stored in ~/.talktome/kissmachine/
package main

import (
	"os"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/cmd/kissmachine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
