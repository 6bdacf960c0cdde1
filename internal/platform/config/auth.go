package config

import (
	"fmt"
	"time"
)

// AuthConfig configures bearer token signing and password hashing.
type AuthConfig struct {
	// Secret signs and verifies HS256 tokens.
	Secret    string        `env:"JWT_SECRET,required,notEmpty"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"tripsync"`
	TokenTTL  time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"`
	ClockSkew time.Duration `env:"JWT_CLOCK_SKEW" envDefault:"30s"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`
}

func LoadAuthConfigFromEnv() (AuthConfig, error) {
	var cfg AuthConfig
	if err := ParseEnv(&cfg); err != nil {
		return AuthConfig{}, err
	}
	if err := cfg.validate(); err != nil {
		return AuthConfig{}, err
	}
	return cfg, nil
}

func (c AuthConfig) validate() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 bytes")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive (e.g. 168h)")
	}
	if c.ClockSkew < 0 {
		return fmt.Errorf("JWT_CLOCK_SKEW must not be negative")
	}
	return nil
}
