package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr            string
	DBDSN               string
	JWTIssuer           string
	JWTSecret           string
	JWTTTL              time.Duration
	InternalToken       string
	WebSocketOrigin     string
	SettlementInterval  time.Duration
	VolumeSweepInterval time.Duration
	NotifyMode          string
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	c.InternalToken = os.Getenv("INTERNAL_API_TOKEN")
	if c.InternalToken == "" {
		missing = append(missing, "INTERNAL_API_TOKEN")
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		missing = append(missing, "WS_ORIGIN")
	}
	var err error
	c.SettlementInterval, err = durationEnv("SETTLEMENT_INTERVAL", 30*time.Second)
	if err != nil {
		return c, err
	}
	c.VolumeSweepInterval, err = durationEnv("VOLUME_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return c, err
	}
	c.NotifyMode = strings.ToLower(strings.TrimSpace(os.Getenv("NOTIFY_MODE")))
	if c.NotifyMode == "" {
		c.NotifyMode = "log"
	}
	if c.NotifyMode != "log" && c.NotifyMode != "disabled" {
		return c, errors.New("invalid NOTIFY_MODE: use log or disabled")
	}
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return d, nil
}
