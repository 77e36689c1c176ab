// Package config resolves ccfetch's environment-derived settings. Flags on
// the command line override anything resolved here.
package config

import (
	"github.com/spf13/viper"

	"github.com/ccfetch/ccfetch/listener"
)

// Config holds the environment-derived settings.
type Config struct {
	// Port is the loopback port Competitive Companion pushes to.
	Port int

	// Template is the path of the solution template to copy; empty means
	// the built-in template.
	Template string

	// Output is the base directory for contest directories.
	Output string

	// Editor is the command used to open a finished contest directory;
	// empty disables the editor hook.
	Editor string

	// Author is the name placed in generated source headers.
	Author string
}

// Load reads configuration from CCFETCH_* environment variables, falling
// back to defaults.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("ccfetch")
	v.AutomaticEnv()

	v.SetDefault("port", listener.DefaultPort)
	v.SetDefault("template", "")
	v.SetDefault("output", ".")
	v.SetDefault("editor", "")
	v.SetDefault("author", "")

	return Config{
		Port:     v.GetInt("port"),
		Template: v.GetString("template"),
		Output:   v.GetString("output"),
		Editor:   v.GetString("editor"),
		Author:   v.GetString("author"),
	}
}
