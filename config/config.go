package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	JWT struct {
		Secret string
	}
	Game struct {
		DeckSize      int
		HandSize      int
		TableCapacity int
		BotDelayMs    int
		RoomTTLMin    int
	}
}

var C Config

func Load() {
	viper.SetConfigFile("config/config.yaml")

	viper.SetDefault("server.port", ":8080")
	viper.SetDefault("game.deckSize", 36)
	viper.SetDefault("game.handSize", 6)
	viper.SetDefault("game.tableCapacity", 6)
	viper.SetDefault("game.botDelayMs", 2000)
	viper.SetDefault("game.roomTTLMin", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config: %v", err)
	}
	if err := viper.Unmarshal(&C); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}
}

func (c *Config) BotDelay() time.Duration {
	return time.Duration(c.Game.BotDelayMs) * time.Millisecond
}

func (c *Config) RoomTTL() time.Duration {
	return time.Duration(c.Game.RoomTTLMin) * time.Minute
}
