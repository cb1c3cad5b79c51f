package buildmap

import "github.com/rs/zerolog"

var logger zerolog.Logger = zerolog.Nop()

// SetLogger replaces the package logger. The default discards everything.
func SetLogger(l zerolog.Logger) {
	logger = l
}
