package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name    string
	Env     string
	BaseURL string // 激活 / 重置链接的前缀，如 https://api.example.com
	HTTP    HTTP
	Admin   AdminHTTP
}

type Log struct {
	Level string
	JSON  bool
}

// JWT 会话与激活两套独立的密钥 / 有效期
type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	ActivationSecret  string
	ActivationTTLMin  int
	ResetTokenTTLMin  int
}

type Redis struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	CourseTTLSec int    `mapstructure:"course_ttl_sec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type S3 struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // 返回给前端的访问地址前缀
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	DB    DB
	Redis Redis `mapstructure:"redis"`
	SMTP  SMTP  `mapstructure:"smtp"`
	S3    S3    `mapstructure:"s3"`
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.JWT.AccessTokenTTLMin <= 0 {
		c.JWT.AccessTokenTTLMin = 60
	}
	if c.JWT.ActivationTTLMin <= 0 {
		c.JWT.ActivationTTLMin = 30
	}
	if c.JWT.ResetTokenTTLMin <= 0 {
		c.JWT.ResetTokenTTLMin = 30
	}
	if c.Redis.CourseTTLSec <= 0 {
		c.Redis.CourseTTLSec = 300
	}
}
