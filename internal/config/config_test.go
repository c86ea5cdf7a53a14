package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GEMINI_MODEL_ID", "")
	t.Setenv("LEAD_FIELDS", "")
	t.Setenv("MAX_SCAN_TURNS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.GeminiModelID != "gemini-2.5-flash" {
		t.Fatalf("expected default gemini model, got %s", cfg.GeminiModelID)
	}
	if cfg.LLMTimeout != 20*time.Second {
		t.Fatalf("expected default llm timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.MaxScanTurns != 8 {
		t.Fatalf("expected default scan turns, got %d", cfg.MaxScanTurns)
	}
	if cfg.FatigueThreshold != 0.8 {
		t.Fatalf("expected default fatigue threshold, got %f", cfg.FatigueThreshold)
	}
	if len(cfg.LeadFields) != 2 || cfg.LeadFields[0] != "name" || cfg.LeadFields[1] != "email" {
		t.Fatalf("expected default lead fields, got %v", cfg.LeadFields)
	}
	if cfg.LeadTriggerStrategy != "on_exit" {
		t.Fatalf("expected default trigger strategy, got %s", cfg.LeadTriggerStrategy)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("MAX_SCAN_TURNS", "4")
	t.Setenv("FATIGUE_THRESHOLD", "0.6")
	t.Setenv("DEFAULT_LANGUAGE", "it")
	t.Setenv("LEAD_TRIGGER_STRATEGY", "ON_EXIT ")
	t.Setenv("LEAD_FIELDS", "email, phone")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "localhost:6380" {
		t.Fatalf("expected redis override, got %s", cfg.RedisAddr)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Fatalf("expected llm timeout override, got %s", cfg.LLMTimeout)
	}
	if cfg.MaxScanTurns != 4 {
		t.Fatalf("expected scan turns override, got %d", cfg.MaxScanTurns)
	}
	if cfg.FatigueThreshold != 0.6 {
		t.Fatalf("expected fatigue threshold override, got %f", cfg.FatigueThreshold)
	}
	if cfg.DefaultLanguage != "it" {
		t.Fatalf("expected language override, got %s", cfg.DefaultLanguage)
	}
	if cfg.LeadTriggerStrategy != "on_exit" {
		t.Fatalf("expected normalized trigger strategy, got %s", cfg.LeadTriggerStrategy)
	}
	if len(cfg.LeadFields) != 2 || cfg.LeadFields[1] != "phone" {
		t.Fatalf("expected lead fields override, got %v", cfg.LeadFields)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://a.example" {
		t.Fatalf("expected cors override, got %v", cfg.CORSAllowedOrigins)
	}
}
