package log

import (
	"fmt"
	"os"
	"strings"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap/zapcore"
)

var (
	envFunc = env
)

func parseLevel(s string) (zapcore.Level, bool) {
	var lvl zapcore.Level
	err := lvl.Set(strings.ToLower(s))
	if err != nil {
		return zapcore.InfoLevel, false
	}
	return lvl, true
}

func env(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func parseLevelFromEnv(key string) (zapcore.Level, bool) {
	v, ok := envFunc(key)
	if !ok {
		return zapcore.InfoLevel, false
	}
	return parseLevel(v)
}

// moduleKeys lists env keys from the most to the least specific one,
// not including the global LOG_LEVEL.
func moduleKeys(names []string) []string {
	skNames := make([]string, len(names))
	for i, n := range names {
		skNames[i] = strcase.ToScreamingSnake(n)
	}

	keys := make([]string, 0, len(skNames))
	for i := len(skNames); i > 0; i-- {
		keys = append(keys, fmt.Sprintf("LOG_LEVEL__%s", strings.Join(skNames[:i], "__")))
	}
	return keys
}

func explicitModuleLevel(names []string) (zapcore.Level, bool) {
	for _, k := range moduleKeys(names) {
		if lv, ok := parseLevelFromEnv(k); ok {
			return lv, true
		}
	}
	return zapcore.InfoLevel, false
}

func moduleLevel(names []string) zapcore.Level {
	if lv, ok := explicitModuleLevel(names); ok {
		return lv
	}
	if lv, ok := parseLevelFromEnv("LOG_LEVEL"); ok {
		return lv
	}
	return zapcore.InfoLevel
}
