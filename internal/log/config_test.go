package log

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

type ModuleLevelTestSuite struct {
	suite.Suite
	originalEnvFunc func(string) (string, bool)
	testEnv         map[string]string
}

func TestModuleLevelSuite(t *testing.T) {
	suite.Run(t, new(ModuleLevelTestSuite))
}

func (s *ModuleLevelTestSuite) SetupTest() {
	s.originalEnvFunc = envFunc
	s.testEnv = make(map[string]string)
	envFunc = func(key string) (string, bool) {
		v := strings.TrimSpace(s.testEnv[key])
		return v, v != ""
	}
}

func (s *ModuleLevelTestSuite) TearDownTest() {
	envFunc = s.originalEnvFunc
}

func (s *ModuleLevelTestSuite) setEnv(envVars map[string]string) {
	for k, v := range envVars {
		s.testEnv[k] = v
	}
}

func (s *ModuleLevelTestSuite) TestNoEnvVars_DefaultsToInfo() {
	s.Equal(zapcore.InfoLevel, moduleLevel([]string{"SessionSvc"}))
}

func (s *ModuleLevelTestSuite) TestGlobalLogLevelOnly() {
	s.setEnv(map[string]string{"LOG_LEVEL": "debug"})
	s.Equal(zapcore.DebugLevel, moduleLevel([]string{"SessionSvc"}))
}

func (s *ModuleLevelTestSuite) TestMostSpecificWins() {
	s.setEnv(map[string]string{
		"LOG_LEVEL":                          "warn",
		"LOG_LEVEL__SESSION_SVC":             "info",
		"LOG_LEVEL__SESSION_SVC__REFRESHER":  "debug",
		"LOG_LEVEL__SESSION_SVC__OTHER_PART": "error",
	})
	s.Equal(zapcore.DebugLevel, moduleLevel([]string{"SessionSvc", "Refresher"}))
	s.Equal(zapcore.InfoLevel, moduleLevel([]string{"SessionSvc", "Webhook"}))
	s.Equal(zapcore.WarnLevel, moduleLevel([]string{"Router"}))
}

func (s *ModuleLevelTestSuite) TestInheritsParentLevel() {
	s.setEnv(map[string]string{
		"LOG_LEVEL":              "warn",
		"LOG_LEVEL__SESSION_SVC": "debug",
	})
	s.Equal(zapcore.DebugLevel, moduleLevel([]string{"SessionSvc", "Refresher", "Deep"}))
}

func (s *ModuleLevelTestSuite) TestCamelCaseConvertedToScreamingSnake() {
	s.setEnv(map[string]string{"LOG_LEVEL__HTTP_SERVER__WEB_SOCKET_HANDLER": "error"})
	s.Equal(zapcore.ErrorLevel, moduleLevel([]string{"HTTPServer", "WebSocketHandler"}))
}

func (s *ModuleLevelTestSuite) TestInvalidLevelFallsThrough() {
	s.setEnv(map[string]string{
		"LOG_LEVEL__SESSION_SVC": "loud",
		"LOG_LEVEL":              "warn",
	})
	s.Equal(zapcore.WarnLevel, moduleLevel([]string{"SessionSvc"}))
}

func (s *ModuleLevelTestSuite) TestCaseInsensitiveAndTrimmed() {
	s.setEnv(map[string]string{"LOG_LEVEL__SESSION_SVC": "  DEBUG "})
	s.Equal(zapcore.DebugLevel, moduleLevel([]string{"SessionSvc"}))
}

func (s *ModuleLevelTestSuite) TestExplicitModuleLevel() {
	_, ok := explicitModuleLevel([]string{"SessionSvc"})
	s.False(ok)

	s.setEnv(map[string]string{"LOG_LEVEL": "debug"})
	_, ok = explicitModuleLevel([]string{"SessionSvc"})
	s.False(ok, "global level is not a module override")

	s.setEnv(map[string]string{"LOG_LEVEL__SESSION_SVC": "error"})
	lv, ok := explicitModuleLevel([]string{"SessionSvc", "Child"})
	s.True(ok)
	s.Equal(zapcore.ErrorLevel, lv)
}

func (s *ModuleLevelTestSuite) TestModuleKeysOrder() {
	s.Equal([]string{
		"LOG_LEVEL__A_B__C_D",
		"LOG_LEVEL__A_B",
	}, moduleKeys([]string{"aB", "cD"}))
}
