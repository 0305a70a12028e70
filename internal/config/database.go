package config

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

func DatabaseURL() (string, error) {
	url, ok := os.LookupEnv("DATABASE_URL")
	if !ok {
		return "", fmt.Errorf("DATABASE_URL env variable is not set")
	}
	return url, nil
}

func NewPgxpoolConfig() (*pgxpool.Config, error) {
	url, err := DatabaseURL()
	if err != nil {
		return nil, err
	}
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}
	return config, nil
}
