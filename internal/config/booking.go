package config

import (
	"strings"
	"time"
)

// BookingConfig is the booking policy: hold length, currency, experience
// lookup mode and the payment callback address.
type BookingConfig struct {
	HoldDuration            time.Duration
	Currency                string
	LookupMode              string // strict or demo
	PlaceholderExperienceID string // demo mode only
	CallbackURL             string
	SessionTTL              time.Duration
	MaxAdvanceDays          int
	CriticalSeconds         int
	SweepInterval           time.Duration
}

func LoadBookingConfig() BookingConfig {
	cfg := BookingConfig{
		HoldDuration:            envDur("BOOKING_HOLD_DURATION", 15*time.Minute),
		Currency:                strings.ToUpper(envStr("BOOKING_CURRENCY", "KES")),
		LookupMode:              strings.ToLower(envStr("BOOKING_LOOKUP_MODE", "strict")),
		PlaceholderExperienceID: envStr("BOOKING_PLACEHOLDER_EXPERIENCE_ID", ""),
		CallbackURL:             envStr("BOOKING_CALLBACK_URL", "http://localhost:8080/v1/payments/callback"),
		SessionTTL:              envDur("BOOKING_SESSION_TTL", 24*time.Hour),
		MaxAdvanceDays:          envInt("BOOKING_MAX_ADVANCE_DAYS", 365),
		CriticalSeconds:         envInt("BOOKING_CRITICAL_SECONDS", 60),
		SweepInterval:           envDur("BOOKING_SWEEP_INTERVAL", 5*time.Minute),
	}
	if cfg.HoldDuration < time.Second {
		cfg.HoldDuration = 15 * time.Minute
	}
	if cfg.LookupMode != "demo" {
		cfg.LookupMode = "strict"
	}
	return cfg
}

// PaymentConfig points at the payment gateway.  CallbackSecret signs and
// verifies gateway callbacks.
type PaymentConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	CallbackSecret string
}

func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		BaseURL:        strings.TrimRight(envStr("PAYMENT_BASE_URL", "http://localhost:9090"), "/"),
		APIKey:         envStr("PAYMENT_API_KEY", ""),
		Timeout:        envDur("PAYMENT_TIMEOUT", 15*time.Second),
		CallbackSecret: envStr("PAYMENT_CALLBACK_SECRET", ""),
	}
}
