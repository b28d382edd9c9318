package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string
	MongoURI     string
	DatabaseName string
	PingInterval time.Duration
}

func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "taskify_db")
	v.SetDefault("PING_INTERVAL", 15) // секунды

	return Config{
		Port:         v.GetString("PORT"),
		MongoURI:     v.GetString("MONGO_URI"),
		DatabaseName: v.GetString("DATABASE_NAME"),
		PingInterval: time.Duration(v.GetInt("PING_INTERVAL")) * time.Second,
	}
}
