package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Query   Query   `yaml:"query"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Storage struct {
	PostgresDsn string `yaml:"postgresDsn"`
	// BatchCeiling bounds the number of values bound into one IN clause,
	// kept comfortably under the engine's parameter limit.
	BatchCeiling int `yaml:"batchCeiling"`
}

type Query struct {
	DefaultPageSize int `yaml:"defaultPageSize"`
	MaxPageSize     int `yaml:"maxPageSize"`
}

func Load(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	config.applyDefaults()

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.Storage.BatchCeiling <= 0 {
		c.Storage.BatchCeiling = 500
	}
	if c.Query.DefaultPageSize <= 0 {
		c.Query.DefaultPageSize = 100
	}
	if c.Query.MaxPageSize <= 0 {
		c.Query.MaxPageSize = 1000
	}
}
