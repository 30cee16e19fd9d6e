// Package config loads the typed process configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/OFFIS-RIT/lendnet/backend/internal/util"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/graph"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/loan"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Debug     bool   `env:"DEBUG" env-default:"false"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
	Port      int    `env:"PORT" env-default:"8080" validate:"min=1,max=65535"`

	DatabaseURL    string `env:"DATABASE_URL" validate:"required"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" env-default:"false"`
	MigrationsPath string `env:"MIGRATIONS_PATH" env-default:"./migrations"`

	MasterAPIKey string `env:"MASTER_API_KEY"`

	Graph      Graph
	RabbitMQ   RabbitMQ
	S3         S3
	Loan       Loan
	Friends    Friends
	Settlement Settlement
}

type Graph struct {
	URI            string `env:"NEO4J_URI" env-default:"bolt://localhost:7687" validate:"required"`
	User           string `env:"NEO4J_USER" env-default:"neo4j"`
	Password       string `env:"NEO4J_PASSWORD"`
	Database       string `env:"NEO4J_DATABASE" env-default:"neo4j"`
	ConnectRetries int    `env:"NEO4J_CONNECT_RETRIES" env-default:"5" validate:"min=1"`
}

// RabbitMQ is optional; without a host, settlement runs are synchronous only.
type RabbitMQ struct {
	User     string `env:"RABBITMQ_USER"`
	Password string `env:"RABBITMQ_PASSWORD"`
	Host     string `env:"RABBITMQ_HOST"`
	Port     string `env:"RABBITMQ_PORT" env-default:"5672"`
}

func (r RabbitMQ) Enabled() bool {
	return r.Host != ""
}

// URL builds the AMQP connection URL.
func (r RabbitMQ) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(r.User, r.Password),
		Host:   r.Host + ":" + r.Port,
		Path:   "/",
	}
	return u.String()
}

// S3 is optional; without a bucket, settlement reports are only logged.
type S3 struct {
	Region    string `env:"AWS_REGION" env-default:"us-east-1"`
	Endpoint  string `env:"AWS_ENDPOINT"`
	AccessKey string `env:"AWS_ACCESS_KEY"`
	SecretKey string `env:"AWS_SECRET_KEY"`
	Bucket    string `env:"AWS_BUCKET"`
}

func (s S3) Enabled() bool {
	return s.Bucket != ""
}

// Loan amounts are read as strings and parsed into decimals so that no
// float rounding happens on the way in.
type Loan struct {
	LendingPercentage string        `env:"LOAN_LENDING_PERCENTAGE" env-default:"25"`
	MaxPerFriend      string        `env:"LOAN_MAX_PER_FRIEND" env-default:"10000"`
	Method            string        `env:"LOAN_METHOD" env-default:"difference"`
	CacheExpiration   time.Duration `env:"LOAN_CACHE_EXPIRATION" env-default:"5m"`
}

type Friends struct {
	MaxDirect       int `env:"FRIENDS_MAX_DIRECT" env-default:"1000"`
	CycleCheckDepth int `env:"FRIENDS_CYCLE_CHECK_DEPTH" env-default:"6"`
	MaxNetworkSize  int `env:"FRIENDS_MAX_NETWORK_SIZE" env-default:"10000"`
	NetworkDepth    int `env:"FRIENDS_NETWORK_DEPTH" env-default:"3"`
}

type Settlement struct {
	BatchAccounts int `env:"SETTLEMENT_BATCH_ACCOUNTS" env-default:"1000" validate:"min=1"`
	LoanChunk     int `env:"SETTLEMENT_LOAN_CHUNK" env-default:"0" validate:"min=0"`
}

// Load reads .env, then the environment, and validates the result. Any
// invalid value is reported as common.ErrInvalidInput.
func Load() (*Config, error) {
	util.LoadEnv()
	return readEnv()
}

func readEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%w: config: %w", common.ErrInvalidInput, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: config: %w", common.ErrInvalidInput, err)
	}
	if _, err := c.LoanConfig(); err != nil {
		return err
	}
	return c.GraphLimits().Validate()
}

// LoanConfig converts the loan settings into the calculator's value object.
func (c *Config) LoanConfig() (loan.Config, error) {
	pct, err := decimal.NewFromString(c.Loan.LendingPercentage)
	if err != nil {
		return loan.Config{}, fmt.Errorf("%w: LOAN_LENDING_PERCENTAGE %q", common.ErrInvalidInput, c.Loan.LendingPercentage)
	}
	maxPerFriend, err := decimal.NewFromString(c.Loan.MaxPerFriend)
	if err != nil {
		return loan.Config{}, fmt.Errorf("%w: LOAN_MAX_PER_FRIEND %q", common.ErrInvalidInput, c.Loan.MaxPerFriend)
	}
	method, err := loan.ParseMethod(c.Loan.Method)
	if err != nil {
		return loan.Config{}, err
	}

	cfg := loan.Config{
		LendingPercentage: pct,
		MaxLoanPerFriend:  maxPerFriend,
		Method:            method,
		CacheExpiration:   c.Loan.CacheExpiration,
	}
	if err := cfg.Validate(); err != nil {
		return loan.Config{}, err
	}
	return cfg, nil
}

func (c *Config) GraphLimits() graph.Limits {
	return graph.Limits{
		MaxDirectFriends: c.Friends.MaxDirect,
		CycleCheckDepth:  c.Friends.CycleCheckDepth,
		MaxNetworkSize:   c.Friends.MaxNetworkSize,
		NetworkDepth:     c.Friends.NetworkDepth,
	}
}
