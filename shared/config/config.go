package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	// reply longer than this many "words" (runes/6) to a question becomes an answer
	MinWordsForAnswerByEmail *int          `yaml:"min_words_for_answer_by_email" validate:"required,gte=0"`
	ReplyEmailDomain         string        `yaml:"reply_email_domain" validate:"required,hostname"`
	JwtTTL                   time.Duration `yaml:"jwt_ttl" validate:"required"`
	HttpPort                 int           `yaml:"http_port"`
	LogLevel                 string        `yaml:"log_level"`
	LogJSON                  bool          `yaml:"log_json"`
	CorsOrigins              []string      `yaml:"cors_origins"`
	InboundSubject           string        `yaml:"inbound_subject"`
	InboundRatePerMinute     float64       `yaml:"inbound_rate_per_minute"`
	InboundMaxBodyBytes      int64         `yaml:"inbound_max_body_bytes"`
	SecureCookies            bool          `yaml:"secure_cookies"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
	Timeout    int    `yaml:"timeout"` // seconds
}

type Private struct {
	Pg            Pg     `yaml:"pg"`
	JwtKey        string `yaml:"jwt_key" validate:"required"`
	InboundSecret string `yaml:"inbound_secret" validate:"required"`
	NatsURL       string `yaml:"nats_url"`
	Email         Email  `yaml:"email"`
}

const (
	defaultHttpPort       = 8080
	defaultInboundSubject = "mail.inbound"
	defaultInboundRate    = 6
	defaultInboundBody    = 1 << 20
)

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func (s *Config) MinWordsForAnswerByEmail() int {
	if s.Public.MinWordsForAnswerByEmail == nil {
		return 0
	}
	return *s.Public.MinWordsForAnswerByEmail
}

func (p *Public) applyDefaults() {
	if p.HttpPort == 0 {
		p.HttpPort = defaultHttpPort
	}
	if p.InboundSubject == "" {
		p.InboundSubject = defaultInboundSubject
	}
	if p.InboundRatePerMinute == 0 {
		p.InboundRatePerMinute = defaultInboundRate
	}
	if p.InboundMaxBodyBytes == 0 {
		p.InboundMaxBodyBytes = defaultInboundBody
	}
	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.UnmarshalStrict(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(output); err != nil {
		panic(fmt.Sprintf("invalid config %s: %v", configPath, err))
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder and panics on any problem.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	public.applyDefaults()

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{Public: public, Private: private}
}
