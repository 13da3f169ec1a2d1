// Команда sessiontoken выпускает токен сессии администратора с секретом из конфига.
// Токен передаётся в cookie session или в заголовке Authorization: Bearer.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/SergeiKhy/blog-analytics/internal/config"
	"github.com/SergeiKhy/blog-analytics/internal/service"
)

func main() {
	configPath := flag.String("config", ".env", "path to .env file")
	login := flag.String("login", "admin", "administrator login")
	ttl := flag.Duration("ttl", 0, "token lifetime (0 - SESSION_TOKEN_TTL)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = cfg.Auth.SessionTokenTTL
	}

	token, err := service.NewSessionValidator(cfg.Auth.SessionSecret).Issue(*login, lifetime)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}
