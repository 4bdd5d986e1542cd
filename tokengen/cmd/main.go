package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/imtaco/rtc-room-client/internal/config"
	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/internal/roomsvc"
	"github.com/imtaco/rtc-room-client/internal/token"
	"github.com/imtaco/rtc-room-client/internal/utils"
)

type Config struct {
	LiveKit  roomsvc.Config `mapstructure:"livekit"`
	Room     string         `mapstructure:"room"`
	Identity string         `mapstructure:"identity"`
	Name     string         `mapstructure:"name"`
	TTL      time.Duration  `mapstructure:"ttl"`
	Admin    bool           `mapstructure:"admin"`
}

func loadConfig(flags *pflag.FlagSet) (*Config, error) {
	return config.Load(&Config{}, func(v *viper.Viper) {
		roomsvc.Setup(v, "livekit")
		if err := v.BindPFlags(flags); err != nil {
			log.Fatal("Failed to bind flags", err)
		}
	})
}

func main() {
	flags := pflag.NewFlagSet("tokengen", pflag.ExitOnError)
	flags.String("room", "agent-test-room", "room to grant")
	flags.String("identity", "web-user", "participant identity")
	flags.String("name", "", "display name, defaults to identity")
	flags.Duration("ttl", time.Hour, "token lifetime")
	flags.Bool("admin", false, "mint a room admin token instead of a join token")
	_ = flags.Parse(os.Args[1:])

	cfg, err := loadConfig(flags)
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	minter := token.NewMinter(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret)

	var raw string
	if cfg.Admin {
		raw, err = minter.MintAdmin(cfg.Room, cfg.TTL)
	} else {
		var cred *token.Credential
		cred, err = minter.Mint(token.MintRequest{
			Identity:       cfg.Identity,
			Name:           cfg.Name,
			Room:           cfg.Room,
			ValidFor:       cfg.TTL,
			CanPublish:     true,
			CanSubscribe:   true,
			CanPublishData: true,
		})
		if cred != nil {
			raw = cred.Token
		}
	}
	if err != nil {
		log.Fatal("Failed to mint token: ", err)
	}

	claims, err := token.NewVerifier(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret).Verify(raw)
	if err != nil {
		log.Fatal("Minted token does not verify: ", err)
	}

	fmt.Println(raw)
	fmt.Println()
	printClaims(cfg.LiveKit.URL, claims)
}

func printClaims(serverURL string, claims *token.Claims) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Claim", "Value"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	table.Append([]string{"server", serverURL})
	table.Append([]string{"issuer", claims.Issuer})
	table.Append([]string{"identity", claims.Identity()})
	table.Append([]string{"name", claims.Name})
	if claims.ExpiresAt != nil {
		table.Append([]string{"expires", claims.ExpiresAt.Time.Format(time.RFC3339)})
	}
	if v := claims.Video; v != nil {
		table.Append([]string{"room", v.Room})
		table.Append([]string{"roomJoin", strconv.FormatBool(v.RoomJoin)})
		table.Append([]string{"roomAdmin", strconv.FormatBool(v.RoomAdmin)})
		// unset publish/subscribe grants default to allowed
		table.Append([]string{"canPublish", strconv.FormatBool(utils.Deref(v.CanPublish, true))})
		table.Append([]string{"canSubscribe", strconv.FormatBool(utils.Deref(v.CanSubscribe, true))})
		table.Append([]string{"canPublishData", strconv.FormatBool(utils.Deref(v.CanPublishData, true))})
	}
	table.Render()
}
