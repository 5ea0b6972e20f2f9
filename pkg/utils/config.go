package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("IMOVELMAP_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("IMOVELMAP_JWT_ISSUER")
	if issuer == "" {
		issuer = "imovelmap"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("IMOVELMAP_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			duration = time.Duration(h) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}

// ClientConfig configures the engine-side binaries (cli, favwatch): where
// the listings/favorites API and the push hub live.
type ClientConfig struct {
	APIBaseURL string
	PushWSURL  string
}

func LoadClientConfig() ClientConfig {
	base := os.Getenv("IMOVELMAP_API_URL")
	if base == "" {
		base = "http://localhost:8080/api"
	}
	ws := os.Getenv("IMOVELMAP_PUSH_WS_URL")
	if ws == "" {
		ws = "ws://localhost:8080/ws/favoritos"
	}
	return ClientConfig{APIBaseURL: base, PushWSURL: ws}
}
