package roomsvc

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the conferencing provider endpoint and key pair.
type Config struct {
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	APISecret      string        `mapstructure:"api_secret"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	// local dev server defaults
	v.SetDefault(p("url"), "ws://localhost:7880")
	v.SetDefault(p("api_key"), "devkey")
	v.SetDefault(p("api_secret"), "secret")
	v.SetDefault(p("request_timeout"), "5s")
}
