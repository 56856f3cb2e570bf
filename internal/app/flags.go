package app

import (
	"flag"
	"io"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/logging"
)

// CommonFlags are the flags shared by all binaries.
type CommonFlags struct {
	ConfigPath string
	Mock       bool
	SDR        string
	Verbose    bool
	Version    bool
}

// Register adds the common flags to fs.
func (c *CommonFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigPath, "C", "", "configuration file (default ~/.config/remoshock.toml)")
	fs.StringVar(&c.ConfigPath, "configfile", "", "configuration file (default ~/.config/remoshock.toml)")
	fs.BoolVar(&c.Mock, "mock", false, "do not transmit anything")
	fs.StringVar(&c.SDR, "sdr", "", "overrides the sdr setting of the configuration")
	fs.BoolVar(&c.Verbose, "v", false, "prints debug messages")
	fs.BoolVar(&c.Verbose, "verbose", false, "prints debug messages")
	fs.BoolVar(&c.Version, "version", false, "prints the version and exits")
}

// Options converts the flags into app options.
func (c *CommonFlags) Options() Options {
	return Options{ConfigPath: c.ConfigPath, Mock: c.Mock, SDR: c.SDR}
}

// Logger creates the process logger from the environment, raised to debug
// by the verbose flag.
func (c *CommonFlags) Logger(name string) (zerolog.Logger, io.Closer) {
	opts := logging.OptionsFromEnv()
	if c.Verbose {
		opts.Level = "debug"
	}
	return logging.New(name, opts)
}
