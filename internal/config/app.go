package config

import (
	"time"

	"github.com/spf13/viper"
)

// App holds process level settings shared by every command.
type App struct {
	// zap JSON config, empty means the built-in console logger
	LogConfigFile string `mapstructure:"log_config_file"`
	// budget for closing event streams, the store and OTLP exporters
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("log_config_file"), "")
	v.SetDefault(p("shutdown_timeout"), "15s")
}
