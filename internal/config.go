package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	BackendURL     string        `env:"BACKEND_URL,required=true" validate:"required,url"`
	Passcode       string        `env:"PASSCODE,required=true" validate:"required"`
	UserName       string        `env:"USER_NAME,required=true" validate:"required,max=50"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	StatsInterval  time.Duration `env:"STATS_INTERVAL,default=500ms" validate:"omitempty,min=100ms"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=15s" validate:"omitempty,min=1s"`
}

func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
