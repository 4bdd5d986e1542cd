package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DotEnvFileKey names the env var that points to an alternative .env file.
const DotEnvFileKey = "DOTENV_FILE"

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads variables from a .env file into the process env.
// Variables already present in the env are kept. A missing file is not an error.
func LoadDotEnv() error {
	file := os.Getenv(DotEnvFileKey)
	if file == "" {
		file = ".env"
	}
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(file)
}

func Load[T any](c *T, configure func(v *viper.Viper)) (*T, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	v := NewViper()
	configure(v)
	return c, v.Unmarshal(c)
}
