package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the app-wide configuration, loaded once at startup.
var Conf *Config

type (
	Config struct {
		Env      string // DEV (local; default), TEST, QA, PROD
		Debug    bool
		TestMode bool
		Build    string

		AppName          string
		SecretKey        []byte
		WorkDir          string
		FrontendBaseURL  string
		DefaultFromEmail string

		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		PasswordResetTimeoutDelta time.Duration

		SendgridAPIKey string
		RollbarToken   string

		Server    ServerConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		Media     MediaConfig
		Webhook   WebhookConfig
		Scheduler SchedulerConfig
	}

	ServerConfig struct {
		Host string
		Port int
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	// MediaConfig selects where course media lands: a GCS bucket when Bucket is
	// set, a local directory otherwise.
	MediaConfig struct {
		Bucket    string
		CDNDomain string
		LocalDir  string
	}

	WebhookConfig struct {
		EscalationURL string
	}

	SchedulerConfig struct {
		Disabled bool
		// cron expression for the overdue/escalation sweep
		SweepSpec string
	}
)

func (c ServerConfig) Address() string   { return fmt.Sprintf("%s:%d", c.Host, c.Port) }
func (c DatabaseConfig) Address() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func init() {
	Conf = LoadConfig()
}

// LoadConfig builds the Config from defaults, an optional config/.env.<env> file
// and environment variables (prefixed with the current ENV).
func LoadConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "AvoCop")
	v.SetDefault("secretKey", "h2(x!x)#*c2(#yg4h^$cegm2emypoq5-wer)enb$+57=dz&uox")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverPort", 8000)
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "avocop")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", 5432)
	v.SetDefault("databaseDisableTLS", true)
	v.SetDefault("mediaLocalDir", "media")
	v.SetDefault("schedulerSweepSpec", "0 * * * *") // hourly

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:      env,
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		Build:    v.GetString("build"),

		AppName:          v.GetString("appName"),
		SecretKey:        []byte(v.GetString("secretKey")),
		WorkDir:          Getwd(),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),

		JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
		JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		SendgridAPIKey: v.GetString("sendgridApiKey"),
		RollbarToken:   v.GetString("rollbarToken"),

		Server: ServerConfig{
			Host: v.GetString("serverHost"),
			Port: v.GetInt("serverPort"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetInt("databasePort"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redisAddr"),
			Password: v.GetString("redisPassword"),
			DB:       v.GetInt("redisDB"),
		},
		Media: MediaConfig{
			Bucket:    v.GetString("mediaBucket"),
			CDNDomain: v.GetString("mediaCdnDomain"),
			LocalDir:  v.GetString("mediaLocalDir"),
		},
		Webhook: WebhookConfig{
			EscalationURL: v.GetString("webhookEscalationUrl"),
		},
		Scheduler: SchedulerConfig{
			Disabled:  v.GetBool("schedulerDisabled"),
			SweepSpec: v.GetString("schedulerSweepSpec"),
		},
	}
}
