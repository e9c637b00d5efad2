package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	RedisUrl    string `mapstructure:"REDIS_URL"`
	MongoUri    string `mapstructure:"MONGO_URI"`
	IsLocalCors bool   `mapstructure:"LOCAL_CORS"`

	LaxSGF           bool          `mapstructure:"LAX_SGF"`
	TreeSpacing      float64       `mapstructure:"TREE_SPACING"`
	ViewWidth        float64       `mapstructure:"VIEW_WIDTH"`
	ViewHeight       float64       `mapstructure:"VIEW_HEIGHT"`
	TabLimit         int           `mapstructure:"TAB_LIMIT"`
	DefaultKomi      float64       `mapstructure:"DEFAULT_KOMI"`
	DefaultBoardSize int           `mapstructure:"DEFAULT_BOARD_SIZE"`
	DefaultRules     string        `mapstructure:"DEFAULT_RULES"`
	RecordTTL        time.Duration `mapstructure:"RECORD_TTL"`
	PageLimitGames   int           `mapstructure:"PAGE_LIMIT_GAMES"`
	ImportDir        string        `mapstructure:"IMPORT_DIR"`

	EnginePath      string `mapstructure:"ENGINE_PATH"`
	EngineArgs      string `mapstructure:"ENGINE_ARGS"`
	EngineMaxVisits int    `mapstructure:"ENGINE_MAX_VISITS"`
}

var defaults = map[string]any{
	"SERVER_PORT":        "8080",
	"REDIS_URL":          "localhost:6379",
	"MONGO_URI":          "",
	"LOCAL_CORS":         false,
	"LAX_SGF":            false,
	"TREE_SPACING":       24.0,
	"VIEW_WIDTH":         640.0,
	"VIEW_HEIGHT":        480.0,
	"TAB_LIMIT":          50,
	"DEFAULT_KOMI":       7.5,
	"DEFAULT_BOARD_SIZE": 19,
	"DEFAULT_RULES":      "chinese",
	"RECORD_TTL":         "168h",
	"PAGE_LIMIT_GAMES":   20,
	"IMPORT_DIR":         "",
	"ENGINE_PATH":        "",
	"ENGINE_ARGS":        "",
	"ENGINE_MAX_VISITS":  1000,
}

// Setup reads cfgPath, an env-style file. A missing file is not an error: the
// defaults and the process environment are used instead.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		v.SetConfigType("env")
		err := v.ReadInConfig()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
