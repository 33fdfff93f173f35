package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	JWTSecret       string
	JWTAlgorithm    string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	PasswordPepper string

	HTTPAddress      string
	AllowedOrigins   []string
	AllowCredentials bool
}

var requiredKeys = []string{
	"DATABASE_URL",
	"JWT_SECRET",
	"PASSWORD_PEPPER",
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	for _, key := range []string{
		"DATABASE_URL",
		"JWT_SECRET", "JWT_ALGORITHM", "JWT_ISSUER", "JWT_AUDIENCE",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"PASSWORD_PEPPER",
		"HTTP_ADDRESS", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("JWT_ISSUER", "expenses-api")
	v.SetDefault("JWT_AUDIENCE", "expenses-app")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("HTTP_ADDRESS", ":8080")

	for _, key := range requiredKeys {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("missing required configuration: %s", key)
		}
	}

	accessTTL, err := time.ParseDuration(v.GetString("ACCESS_TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("bad ACCESS_TOKEN_TTL: %w", err)
	}
	refreshTTL, err := time.ParseDuration(v.GetString("REFRESH_TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("bad REFRESH_TOKEN_TTL: %w", err)
	}

	return &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTAlgorithm:     v.GetString("JWT_ALGORITHM"),
		JWTIssuer:        v.GetString("JWT_ISSUER"),
		JWTAudience:      v.GetString("JWT_AUDIENCE"),
		AccessTokenTTL:   accessTTL,
		RefreshTokenTTL:  refreshTTL,
		PasswordPepper:   v.GetString("PASSWORD_PEPPER"),
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		AllowedOrigins:   v.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
	}, nil
}
