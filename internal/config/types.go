package config

import "time"

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

type GRPCConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	Port                  string `mapstructure:"port"`
	EnableReflection      bool   `mapstructure:"enable_reflection"`
	MaxReceiveMessageSize int    `mapstructure:"max_receive_message_size"`
	MaxSendMessageSize    int    `mapstructure:"max_send_message_size"`
}

type DatabaseConfig struct {
	// Driver is either "sqlite" or "postgres"
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	LogLevel string `mapstructure:"log_level"`
}

type AuthConfig struct {
	SecretKey       string        `mapstructure:"secret_key"`
	SessionLifetime time.Duration `mapstructure:"session_lifetime"`
	CookieName      string        `mapstructure:"cookie_name"`
	SecureCookie    bool          `mapstructure:"secure_cookie"`
	CodeLength      int           `mapstructure:"code_length"`
	CodeTTL         time.Duration `mapstructure:"code_ttl"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	BlockDuration   time.Duration `mapstructure:"block_duration"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type BotConfig struct {
	Token           string        `mapstructure:"token"`
	SuperAdminID    int64         `mapstructure:"super_admin_id"`
	PassphraseHash  string        `mapstructure:"passphrase_hash"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
	SendRate        float64       `mapstructure:"send_rate"`
	SendBurst       int           `mapstructure:"send_burst"`
}

type ContentConfig struct {
	SocialStudiesPrimaryDoc   string `mapstructure:"social_studies_primary_doc"`
	SocialStudiesSecondaryDoc string `mapstructure:"social_studies_secondary_doc"`
	PhilosophyDoc             string `mapstructure:"philosophy_doc"`
}

type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Bot      BotConfig      `mapstructure:"bot"`
	Content  ContentConfig  `mapstructure:"content"`
}
