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

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string
		AppName  string

		SecretKey string

		Server   ServerConfig
		Database DatabaseConfig
		Parser   ParserConfig
		Bot      BotConfig

		RollbarToken string
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		AllowedOrigins            []string
		AdminUsername             string
		AdminPasswordHash         string
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	// ParserConfig drives the periodic journal extraction worker.
	ParserConfig struct {
		Interval         time.Duration
		DownloadDir      string
		DriveAPIKey      string
		Files            []TargetFile
		SkipSheets       int
		StartSheetPrefix string
		StopSheetPrefix  string
		StopSheetName    string
		GroupPrefixes    []string
		TopicRowDenylist []string
	}

	// TargetFile is one spreadsheet to download and extract.
	// Name doubles as the stored file name; the group name is derived from it.
	TargetFile struct {
		Name    string `mapstructure:"name"`
		DriveID string `mapstructure:"drive_id"`
	}

	BotConfig struct {
		Token            string
		Debug            bool
		ThrottleInterval time.Duration
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "GreMuiv")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "w3+0am*xh2(h!x)#*c2(#yg4h^$cegm2emy&0repl@ce-me")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.adminUsername", "admin")
	v.SetDefault("server.adminPasswordHash", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "gremuiv")
	v.SetDefault("database.user", "gremuiv")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("parser.interval", 15*time.Minute)
	v.SetDefault("parser.downloadDir", filepath.Join("data", "downloaded_files"))
	v.SetDefault("parser.driveAPIKey", "")
	v.SetDefault("parser.skipSheets", 3)
	v.SetDefault("parser.startSheetPrefix", "")
	v.SetDefault("parser.stopSheetPrefix", "УП")
	v.SetDefault("parser.stopSheetName", "УП технической разработки")
	v.SetDefault("parser.groupPrefixes", []string{"Испп ", "temp_"})
	v.SetDefault("parser.topicRowDenylist", []string{})

	v.SetDefault("bot.token", "")
	v.SetDefault("bot.debug", false)
	v.SetDefault("bot.throttleInterval", time.Second)

	v.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	// optional config file (the target file list lives here)
	v.SetConfigName("config." + strings.ToLower(env))
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("config.ReadInConfig: %v", err)
		}
	}

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	conf.Env = env
	return conf
}
