package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret      string
	EnableLocalAuth bool
	AdminUser       string
	AdminPassHash   string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Session store
	SessionBackend   string // sql|redis
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	SessionTTL       time.Duration
	SubmitGrace      time.Duration
	SessionRetention time.Duration

	EnablePracticeVerify bool
	ScoreFloorZero       bool

	LeaderboardSize       int
	LeaderboardExportSize int

	AMQPURL      string
	AMQPExchange string

	LogLevel      string
	LogFormat     string
	EnableMetrics bool
}

// CORSOrigins returns the allow-list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MODE", string(ModeOffline))
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("AUTH_HMAC_SECRET", "supersecret-dev-key")
	v.SetDefault("ENABLE_LOCAL_AUTH", true)
	v.SetDefault("ADMIN_USER", "admin")
	v.SetDefault("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji")
	v.SetDefault("CORS_ORIGINS_ONLINE", "https://quiz.mindengage.ai")
	v.SetDefault("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010")
	v.SetDefault("SESSION_BACKEND", "sql")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", "10m")
	v.SetDefault("SUBMIT_GRACE", "2m")
	v.SetDefault("SESSION_RETENTION", "24h")
	v.SetDefault("ENABLE_PRACTICE_VERIFY", true)
	v.SetDefault("SCORE_FLOOR_ZERO", false)
	v.SetDefault("LEADERBOARD_SIZE", 20)
	v.SetDefault("LEADERBOARD_EXPORT_SIZE", 100)
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "quiz-events")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENABLE_METRICS", true)
}

// Load reads configuration from the environment and an optional .env file in
// the working directory. Environment variables win over the file.
func Load() Config {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn().Err(err).Msg("error reading .env config file")
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	mode := Mode(strings.ToLower(v.GetString("MODE")))
	if mode != ModeOnline {
		mode = ModeOffline
	}
	return Config{
		Mode:                  mode,
		HTTPAddr:              v.GetString("HTTP_ADDR"),
		DBDriver:              v.GetString("DB_DRIVER"),
		DBDSN:                 v.GetString("DB_DSN"),
		AuthSecret:            v.GetString("AUTH_HMAC_SECRET"),
		EnableLocalAuth:       v.GetBool("ENABLE_LOCAL_AUTH"),
		AdminUser:             v.GetString("ADMIN_USER"),
		AdminPassHash:         v.GetString("ADMIN_PASS_HASH"),
		CORSOriginsOnline:     csv(v.GetString("CORS_ORIGINS_ONLINE")),
		CORSOriginsOffline:    csv(v.GetString("CORS_ORIGINS_OFFLINE")),
		SessionBackend:        strings.ToLower(v.GetString("SESSION_BACKEND")),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		SessionTTL:            v.GetDuration("SESSION_TTL"),
		SubmitGrace:           v.GetDuration("SUBMIT_GRACE"),
		SessionRetention:      v.GetDuration("SESSION_RETENTION"),
		EnablePracticeVerify:  v.GetBool("ENABLE_PRACTICE_VERIFY"),
		ScoreFloorZero:        v.GetBool("SCORE_FLOOR_ZERO"),
		LeaderboardSize:       v.GetInt("LEADERBOARD_SIZE"),
		LeaderboardExportSize: v.GetInt("LEADERBOARD_EXPORT_SIZE"),
		AMQPURL:               v.GetString("AMQP_URL"),
		AMQPExchange:          v.GetString("AMQP_EXCHANGE"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFormat:             v.GetString("LOG_FORMAT"),
		EnableMetrics:         v.GetBool("ENABLE_METRICS"),
	}
}

func csv(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
