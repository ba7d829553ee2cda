package internal

import "time"

type Config struct {
	Host                 string `env:"HOST,default=0.0.0.0"`
	Port                 int    `env:"PORT,default=5000"`
	BadgerFilepath       string `env:"BADGER_FILEPATH,required=true"`
	LogLevel             string `env:"LOG_LEVEL,default=info"`
	BufferSize           int    `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int    `env:"CONNECTION_BUFFER_SIZE,default=64"`
	LimitMessages        *int   `env:"LIMIT_MESSAGES"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
