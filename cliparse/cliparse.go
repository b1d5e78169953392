package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          int           `yaml:"port" validate:"min=1,max=65535"`
	DatabaseURL   string        `yaml:"database_url" validate:"required"`
	DatabaseType  string        `yaml:"database_type" validate:"oneof=sqlite postgres"`
	AdminKeySalt  string        `yaml:"admin_key_salt" validate:"required"`
	SlugSalt      string        `yaml:"slug_salt" validate:"required"`
	BaseURL       string        `yaml:"base_url" validate:"omitempty,url"`
	SubmitRate    float64       `yaml:"submit_rate" validate:"gte=0"`
	SubmitBurst   int           `yaml:"submit_burst" validate:"gte=0"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace" validate:"gte=0"`
	TrustProxy    bool          `yaml:"trust_proxy"`

	ConfigFile string `yaml:"-"`
	EnvFile    string `yaml:"-"`
}

var validate = validator.New()

func defaults() Config {
	return Config{
		Port:          3318,
		DatabaseType:  "sqlite",
		BaseURL:       "http://localhost:3318",
		SubmitRate:    5,
		SubmitBurst:   10,
		ShutdownGrace: 5 * time.Second,
	}
}

// ParseFlags builds the configuration. Precedence, highest first:
// CLI flags, environment (including a .env file), YAML config file, defaults.
func ParseFlags(args []string) (Config, error) {
	var flagCfg Config

	fs := flag.NewFlagSet("election-tally", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&flagCfg.Port, "p", 0, "Server port")
	fs.StringVar(&flagCfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&flagCfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&flagCfg.BaseURL, "base-url", "", "Public base URL used in share links")
	fs.Float64Var(&flagCfg.SubmitRate, "submit-rate", 0, "Allowed submissions per second per client")
	fs.IntVar(&flagCfg.SubmitBurst, "submit-burst", 0, "Submission burst per client")
	fs.BoolVar(&flagCfg.TrustProxy, "trust-proxy", false, "Take client IPs from X-Forwarded-For / X-Real-IP")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&flagCfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&flagCfg.SlugSalt, "slug-salt", "", "Share slug salt (prefer env)")

	fs.StringVar(&flagCfg.ConfigFile, "c", "", "YAML config file")
	fs.StringVar(&flagCfg.EnvFile, "e", ".env", "Env file to load")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(flagCfg.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := defaults()
	cfg.EnvFile = flagCfg.EnvFile

	cfg.ConfigFile = flagCfg.ConfigFile
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = os.Getenv("CONFIG_FILE")
	}
	if cfg.ConfigFile != "" {
		if err := loadFile(cfg.ConfigFile, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	// Only flags given on the command line override
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = flagCfg.Port
		case "d":
			cfg.DatabaseURL = flagCfg.DatabaseURL
		case "t":
			cfg.DatabaseType = flagCfg.DatabaseType
		case "base-url":
			cfg.BaseURL = flagCfg.BaseURL
		case "submit-rate":
			cfg.SubmitRate = flagCfg.SubmitRate
		case "submit-burst":
			cfg.SubmitBurst = flagCfg.SubmitBurst
		case "trust-proxy":
			cfg.TrustProxy = flagCfg.TrustProxy
		case "admin-salt":
			cfg.AdminKeySalt = flagCfg.AdminKeySalt
		case "slug-salt":
			cfg.SlugSalt = flagCfg.SlugSalt
		}
	})

	if err := validate.Struct(cfg); err != nil {
		return Config{}, describe(err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return errors.New("invalid PORT env variable")
		}
		cfg.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.DatabaseType = v
	}
	if v := os.Getenv("ADMIN_KEY_SALT"); v != "" {
		cfg.AdminKeySalt = v
	}
	if v := os.Getenv("SLUG_SALT"); v != "" {
		cfg.SlugSalt = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SUBMIT_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New("invalid SUBMIT_RATE env variable")
		}
		cfg.SubmitRate = rate
	}
	if v := os.Getenv("SUBMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid SUBMIT_BURST env variable")
		}
		cfg.SubmitBurst = burst
	}
	if v := os.Getenv("TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("invalid TRUST_PROXY env variable")
		}
		cfg.TrustProxy = trust
	}
	return nil
}

// describe turns the first validation failure into a message naming the
// flag or variable that fixes it.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Field() {
	case "DatabaseURL":
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	case "AdminKeySalt":
		return errors.New("ADMIN_KEY_SALT required")
	case "SlugSalt":
		return errors.New("SLUG_SALT required")
	case "DatabaseType":
		return fmt.Errorf("unsupported database type %q (sqlite or postgres)", fe.Value())
	default:
		return fmt.Errorf("invalid %s: failed %q check", fe.Field(), fe.Tag())
	}
}
