package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string `env:"ADDR" envDefault:":8080"`
	StaticDir      string `env:"STATIC_DIR" envDefault:"./public"`
	ContactSeconds int    `env:"CONTACT_SECONDS" envDefault:"20"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load() // missing .env is fine
	return env.ParseAs[Config]()
}
