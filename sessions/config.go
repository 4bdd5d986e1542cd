package sessions

import (
	"time"

	"github.com/spf13/viper"

	"github.com/imtaco/rtc-room-client/internal/errors"
)

type Config struct {
	RoomPrefix     string `mapstructure:"room_prefix"`
	FixedRoom      string `mapstructure:"fixed_room"`
	IdentityPrefix string `mapstructure:"identity_prefix"`

	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	TokenMinRemaining  time.Duration `mapstructure:"token_min_remaining"`
	TokenRefreshMargin time.Duration `mapstructure:"token_refresh_margin"`

	SessionTTL       time.Duration `mapstructure:"session_ttl"`
	PresenceCacheTTL time.Duration `mapstructure:"presence_cache_ttl"`
	SpeakerTTL       time.Duration `mapstructure:"speaker_ttl"`
	EventBuffer      int           `mapstructure:"event_buffer"`

	CanPublish     bool `mapstructure:"can_publish"`
	CanSubscribe   bool `mapstructure:"can_subscribe"`
	CanPublishData bool `mapstructure:"can_publish_data"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("room_prefix"), "agent-room")
	v.SetDefault(p("fixed_room"), "")
	v.SetDefault(p("identity_prefix"), "web-user")
	v.SetDefault(p("token_ttl"), "1h")
	v.SetDefault(p("token_min_remaining"), "30s")
	v.SetDefault(p("token_refresh_margin"), "2m")
	v.SetDefault(p("session_ttl"), "30m")
	v.SetDefault(p("presence_cache_ttl"), "2s")
	v.SetDefault(p("speaker_ttl"), "5s")
	v.SetDefault(p("event_buffer"), 16)
	v.SetDefault(p("can_publish"), true)
	v.SetDefault(p("can_subscribe"), true)
	v.SetDefault(p("can_publish_data"), true)
}

func (c *Config) Validate() error {
	if c.TokenTTL <= 0 {
		return errors.New(ErrInvalidRequest, "token_ttl must be positive")
	}
	if c.TokenRefreshMargin <= c.TokenMinRemaining {
		return errors.New(ErrInvalidRequest, "token_refresh_margin must exceed token_min_remaining")
	}
	if c.TokenTTL <= c.TokenRefreshMargin {
		return errors.New(ErrInvalidRequest, "token_ttl must exceed token_refresh_margin")
	}
	if c.SessionTTL <= 0 {
		return errors.New(ErrInvalidRequest, "session_ttl must be positive")
	}
	return nil
}
