package config

import "os"

func ListenAddr() string {
	if addr, ok := os.LookupEnv("APP_ADDR"); ok {
		return addr
	}
	return ":8080"
}

func Development() bool {
	return os.Getenv("APP_ENV") == "development"
}
