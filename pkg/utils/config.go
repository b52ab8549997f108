package utils

import "os"

type ServerConfig struct {
	Addr     string // HTTP listen address
	FeedAddr string // TCP activity feed listen address
	InMemory bool   // run against the in-memory store instead of SQLite
}

func LoadServerConfig() ServerConfig {
	addr := os.Getenv("LIBRARY_ADDR")
	if addr == "" {
		addr = ":5000"
	}

	feedAddr := os.Getenv("LIBRARY_FEED_ADDR")
	if feedAddr == "" {
		feedAddr = ":7070"
	}

	return ServerConfig{
		Addr:     addr,
		FeedAddr: feedAddr,
		InMemory: os.Getenv("LIBRARY_MEMORY") == "1",
	}
}
