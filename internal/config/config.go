package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Google   GoogleConfig
	SMTP     SMTPConfig
	Guard    GuardConfig
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port   string `mapstructure:"port"`
	Env    string `mapstructure:"env"`
	AppURL string `mapstructure:"appurl"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// AuthConfig holds the shared secrets that gate session issuance.
//
// CredentialProviderSecret and ServerSecret must both be present before a
// credential-based sign-in may issue a session. NewVerificationSecret
// additionally authorizes the passwordless re-verification sign-in path.
// SessionSecret signs the session JWT.
type AuthConfig struct {
	CredentialProviderSecret string `mapstructure:"credentialprovidersecret"`
	ServerSecret             string `mapstructure:"serversecret"`
	NewVerificationSecret    string `mapstructure:"newverificationsecret"`
	SessionSecret            string `mapstructure:"sessionsecret"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"clientid"`
	ClientSecret string `mapstructure:"clientsecret"`
	RedirectURL  string `mapstructure:"redirecturl"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// GuardConfig holds route-guard policy toggles.
type GuardConfig struct {
	// EnforceDashboardRoles redirects authenticated users away from dashboards
	// their role is not permitted to access. Off by default.
	EnforceDashboardRoles bool `mapstructure:"enforcedashboardroles"`
}

// IsProduction reports whether the server runs in production mode. Cookie
// security attributes key off this.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Load creates a new Config object from environment variables.
func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env into process environment for BindEnv to work with file-based envs
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ godotenv could not load .env: %v", err)
	}

	// Bind structured keys to environment variables
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.appurl", "APP_URL")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("redis.url", "REDIS_URL")
	_ = viper.BindEnv("auth.credentialprovidersecret", "CREDENTIAL_PROVIDER_SECRET")
	_ = viper.BindEnv("auth.serversecret", "SERVER_SECRET")
	_ = viper.BindEnv("auth.newverificationsecret", "NEW_VERIFICATION_SECRET")
	_ = viper.BindEnv("auth.sessionsecret", "SESSION_SECRET")
	_ = viper.BindEnv("google.clientid", "GOOGLE_CLIENT_ID")
	_ = viper.BindEnv("google.clientsecret", "GOOGLE_CLIENT_SECRET")
	_ = viper.BindEnv("google.redirecturl", "GOOGLE_REDIRECT_URL")
	_ = viper.BindEnv("smtp.host", "SMTP_HOST")
	_ = viper.BindEnv("smtp.port", "SMTP_PORT")
	_ = viper.BindEnv("smtp.username", "SMTP_USERNAME")
	_ = viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = viper.BindEnv("smtp.from", "SMTP_FROM")
	_ = viper.BindEnv("guard.enforcedashboardroles", "GUARD_ENFORCE_DASHBOARD_ROLES")

	if err := viper.ReadInConfig(); err != nil {
		// Only log a warning if the .env file is not found.
		// We can still proceed if all config is set via environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("❌ Error reading config file: %s", err)
		} else {
			log.Printf("⚠️ .env file not found, relying on environment variables")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	// --- Set default values ---
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.AppURL == "" {
		cfg.Server.AppURL = "http://localhost:" + cfg.Server.Port
	}

	return &cfg
}
