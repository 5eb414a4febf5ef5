package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppAddr        = ":8080"
	defaultTravelDuration = 5 * time.Second
	defaultMaxInflight    = 200
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

type Env struct {
	AppAddr        string
	GinMode        string
	TravelDuration time.Duration
	DBDSN          string
	JWTSecret      string
	CORSOrigins    []string
	MaxInflight    int
}

// JournalEnabled reports whether trips are written to MySQL.
func (e Env) JournalEnabled() bool { return e.DBDSN != "" }

// OperatorAuthEnabled reports whether cabin administration requires a token.
func (e Env) OperatorAuthEnabled() bool { return e.JWTSecret != "" }

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = defaultAppAddr
	}

	travel := defaultTravelDuration
	if raw := strings.TrimSpace(os.Getenv("TRAVEL_DURATION")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Printf("warning: TRAVEL_DURATION %q tidak valid, pakai %s", raw, defaultTravelDuration)
		} else {
			travel = d
		}
	}

	maxInflight := defaultMaxInflight
	if raw := strings.TrimSpace(os.Getenv("MAX_INFLIGHT")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.Printf("warning: MAX_INFLIGHT %q tidak valid, pakai %d", raw, defaultMaxInflight)
		} else {
			maxInflight = n
		}
	}

	origins := defaultCORSOrigins
	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		origins = []string{}
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				origins = append(origins, o)
			}
		}
	}

	return Env{
		AppAddr:        appAddr,
		GinMode:        strings.TrimSpace(os.Getenv("GIN_MODE")),
		TravelDuration: travel,
		DBDSN:          strings.TrimSpace(os.Getenv("DB_DSN")),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		CORSOrigins:    origins,
		MaxInflight:    maxInflight,
	}
}
