package transport

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// session creations per second and burst, per client ip
	CreateRate       float64       `mapstructure:"create_rate"`
	CreateBurst      int           `mapstructure:"create_burst"`
	LimiterCacheSize int           `mapstructure:"limiter_cache_size"`
	PingInterval     time.Duration `mapstructure:"ping_interval"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("allowed_origins"), []string{"*"})
	v.SetDefault(p("create_rate"), 1.0)
	v.SetDefault(p("create_burst"), 5)
	v.SetDefault(p("limiter_cache_size"), 1024)
	v.SetDefault(p("ping_interval"), "15s")
	v.SetDefault(p("write_timeout"), "3s")
	v.SetDefault(p("probe_timeout"), "2s")
}
