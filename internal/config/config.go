package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application. It is loaded once at
// start-up and treated as read-only afterwards.
type Config struct {
	Server       ServerConfig
	MongoDB      MongoDBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	TON          TONConfig
	Lottery      LotteryConfig
	Verification VerificationConfig
	RateLimit    RateLimitConfig
	Storage      StorageConfig
	Log          LogConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
	Mode         string // gin mode: debug, release, test
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// RedisConfig holds the balance cache connection. An empty Addr disables caching.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	BalanceTTL time.Duration
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// TONConfig holds the blockchain API and the wallet that collects ticket payments.
type TONConfig struct {
	APIBaseURL       string
	APIKey           string
	CollectionWallet string
	Timeout          time.Duration
	MockAPI          bool
}

// TierConfig is one payout tier as written in the config file.
type TierConfig struct {
	Tier    string
	Matches int
	Share   string
}

// DiscountConfig is one bulk discount threshold.
type DiscountConfig struct {
	MinTickets int64
	Percent    string
}

// LotteryConfig holds ticket pricing and the revenue split. Amounts and
// fractions are strings so they parse into exact decimals.
type LotteryConfig struct {
	TicketPrice           string
	PrizeFundShare        string
	JackpotShare          string
	ReserveShare          string
	Tiers                 []TierConfig
	BulkDiscounts         []DiscountConfig
	MaxTicketsPerPurchase int
	NumbersPerTicket      int
	NumberRange           int
	// SettleGrace is how long settlement waits after close for reserved
	// purchases that are still being stored.
	SettleGrace time.Duration
}

// VerificationConfig holds the purchase verifier policy.
type VerificationConfig struct {
	MinHashLength   int
	AmountTolerance string // TON
	DedupFailOpen   bool
}

// RateLimitConfig limits requests per client IP on public write routes.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string // mongodb or memory
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string // text or json
}

// Load reads configuration from an optional .env file, config.yaml under path
// (or ./config) and the environment, then validates it.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:5173"})
	v.SetDefault("Server.Mode", "release")
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	v.SetDefault("MongoDB.Database", "tonlotto")
	v.SetDefault("MongoDB.ConnectTimeout", 10*time.Second)
	v.SetDefault("Redis.Addr", "")
	v.SetDefault("Redis.Password", "")
	v.SetDefault("Redis.DB", 0)
	v.SetDefault("Redis.BalanceTTL", 30*time.Second)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("TON.APIBaseURL", "https://tonapi.io")
	v.SetDefault("TON.APIKey", "")
	v.SetDefault("TON.CollectionWallet", "")
	v.SetDefault("TON.Timeout", 10*time.Second)
	v.SetDefault("TON.MockAPI", false)
	v.SetDefault("Lottery.TicketPrice", "1")
	v.SetDefault("Lottery.PrizeFundShare", "0.50")
	v.SetDefault("Lottery.JackpotShare", "0.15")
	v.SetDefault("Lottery.ReserveShare", "0.10")
	v.SetDefault("Lottery.Tiers", []map[string]interface{}{
		{"tier": finance.TierMatch4, "matches": 4, "share": "0.60"},
		{"tier": finance.TierMatch3, "matches": 3, "share": "0.30"},
		{"tier": finance.TierMatch2, "matches": 2, "share": "0.10"},
	})
	v.SetDefault("Lottery.BulkDiscounts", []map[string]interface{}{})
	v.SetDefault("Lottery.MaxTicketsPerPurchase", 100)
	v.SetDefault("Lottery.NumbersPerTicket", 5)
	v.SetDefault("Lottery.NumberRange", 36)
	v.SetDefault("Lottery.SettleGrace", time.Minute)
	v.SetDefault("Verification.MinHashLength", 20)
	v.SetDefault("Verification.AmountTolerance", "0.01")
	v.SetDefault("Verification.DedupFailOpen", true)
	v.SetDefault("RateLimit.RequestsPerSecond", 5)
	v.SetDefault("RateLimit.Burst", 10)
	v.SetDefault("Storage.Driver", "mongodb")
	v.SetDefault("Log.Level", "info")
	v.SetDefault("Log.Format", "text")
}

// Validate checks every value the money path depends on.
func (c *Config) Validate() error {
	if _, err := c.Lottery.Shares(); err != nil {
		return fmt.Errorf("lottery shares: %w", err)
	}
	price, err := c.Lottery.Price()
	if err != nil {
		return err
	}
	if !price.IsPositive() {
		return fmt.Errorf("lottery ticket price must be positive, got %s", price)
	}
	if _, err := c.Lottery.Discounts(); err != nil {
		return fmt.Errorf("lottery discounts: %w", err)
	}
	if c.Lottery.SettleGrace < 0 {
		return errors.New("lottery settle grace must not be negative")
	}
	if c.Lottery.MaxTicketsPerPurchase < 1 {
		return errors.New("lottery max tickets per purchase must be at least 1")
	}
	if c.Lottery.NumbersPerTicket < 1 || c.Lottery.NumberRange < c.Lottery.NumbersPerTicket {
		return fmt.Errorf("lottery needs 1 <= numbersPerTicket (%d) <= numberRange (%d)", c.Lottery.NumbersPerTicket, c.Lottery.NumberRange)
	}
	if c.Verification.MinHashLength < 1 {
		return errors.New("verification min hash length must be at least 1")
	}
	tol, err := c.Verification.Tolerance()
	if err != nil {
		return err
	}
	if tol.IsNegative() {
		return errors.New("verification amount tolerance must not be negative")
	}
	if !c.TON.MockAPI && c.TON.CollectionWallet == "" {
		return errors.New("TON collection wallet is required unless TON.MockAPI is set")
	}
	switch c.Storage.Driver {
	case "mongodb", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Shares converts the configured split into finance.Shares and validates it.
func (l LotteryConfig) Shares() (finance.Shares, error) {
	var (
		s   finance.Shares
		err error
	)
	if s.PrizeFund, err = parseDecimal("Lottery.PrizeFundShare", l.PrizeFundShare); err != nil {
		return s, err
	}
	if s.Jackpot, err = parseDecimal("Lottery.JackpotShare", l.JackpotShare); err != nil {
		return s, err
	}
	if s.Reserve, err = parseDecimal("Lottery.ReserveShare", l.ReserveShare); err != nil {
		return s, err
	}
	for _, t := range l.Tiers {
		share, err := parseDecimal("Lottery.Tiers."+t.Tier, t.Share)
		if err != nil {
			return s, err
		}
		s.Tiers = append(s.Tiers, finance.TierShare{Tier: t.Tier, Matches: t.Matches, Share: share})
	}
	for _, t := range s.Tiers {
		if t.Matches >= l.NumbersPerTicket {
			return s, fmt.Errorf("tier %s matches %d must be below numbers per ticket %d; a full match wins the jackpot", t.Tier, t.Matches, l.NumbersPerTicket)
		}
	}
	return s, s.Validate()
}

// Price returns the ticket price in TON.
func (l LotteryConfig) Price() (decimal.Decimal, error) {
	return parseDecimal("Lottery.TicketPrice", l.TicketPrice)
}

// Discounts returns the bulk discount table.
func (l LotteryConfig) Discounts() ([]finance.BulkDiscount, error) {
	out := make([]finance.BulkDiscount, 0, len(l.BulkDiscounts))
	for _, dc := range l.BulkDiscounts {
		pct, err := parseDecimal("Lottery.BulkDiscounts.Percent", dc.Percent)
		if err != nil {
			return nil, err
		}
		out = append(out, finance.BulkDiscount{MinTickets: dc.MinTickets, Percent: pct})
	}
	return out, finance.ValidateDiscounts(out)
}

// Tolerance returns the accepted underpayment in TON.
func (v VerificationConfig) Tolerance() (decimal.Decimal, error) {
	return parseDecimal("Verification.AmountTolerance", v.AmountTolerance)
}

func parseDecimal(key, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("config %s: %q is not a decimal: %w", key, raw, err)
	}
	return d, nil
}
