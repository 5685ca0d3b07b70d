package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		Addr                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
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

	MailConfig struct {
		DefaultFrom    string
		SendgridAPIKey string
	}

	StorageConfig struct {
		MediaRoot          string
		MaxUploadSize      int64
		OSSEndpoint        string
		OSSBucket          string
		OSSAccessKeyID     string
		OSSAccessKeySecret string
	}

	SchoolConfig struct {
		MinGradeLevel int
		MaxGradeLevel int
		PageSize      int
	}

	NotificationConfig struct {
		QueueSize int
	}

	Config struct {
		Debug           bool
		TestMode        bool
		Env             string
		Build           string
		AppName         string
		SecretKey       string
		FrontendBaseURL string
		WorkDir         string
		RollbarToken    string

		Server       ServerConfig
		Database     DatabaseConfig
		Mail         MailConfig
		Storage      StorageConfig
		School       SchoolConfig
		Notification NotificationConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// DefaultFromEmail parses Mail.DefaultFrom; it falls back to a bare address on failure.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.Mail.DefaultFrom); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.Mail.DefaultFrom}
}

func init() {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Shiksha")
	v.SetDefault("secretKey", "x2o)d$v#yq8=g^tmu3c&+dzlp7(h!w4r*e5n_a6s9f0k1jbi")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "shiksha")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("maxUploadSize", int64(10<<20)) // 10MB
	v.SetDefault("minGradeLevel", 9)
	v.SetDefault("maxGradeLevel", 12)
	v.SetDefault("pageSize", 10)
	v.SetDefault("notificationQueueSize", 256)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch strings.ToUpper(env) {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	v.SetDefault("mediaRoot", filepath.Join(wd, "media"))

	Conf = &Config{
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		Env:             env,
		Build:           v.GetString("build"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		WorkDir:         wd,
		RollbarToken:    v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Addr:                      v.GetString("serverAddr"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Mail: MailConfig{
			DefaultFrom:    v.GetString("defaultFromEmail"),
			SendgridAPIKey: v.GetString("sendgridApiKey"),
		},
		Storage: StorageConfig{
			MediaRoot:          v.GetString("mediaRoot"),
			MaxUploadSize:      v.GetInt64("maxUploadSize"),
			OSSEndpoint:        v.GetString("ossEndpoint"),
			OSSBucket:          v.GetString("ossBucket"),
			OSSAccessKeyID:     v.GetString("ossAccessKeyId"),
			OSSAccessKeySecret: v.GetString("ossAccessKeySecret"),
		},
		School: SchoolConfig{
			MinGradeLevel: v.GetInt("minGradeLevel"),
			MaxGradeLevel: v.GetInt("maxGradeLevel"),
			PageSize:      v.GetInt("pageSize"),
		},
		Notification: NotificationConfig{
			QueueSize: v.GetInt("notificationQueueSize"),
		},
	}
}
