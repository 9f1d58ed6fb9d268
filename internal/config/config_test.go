package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want 2", cfg.WorkerCount)
	}
	if cfg.MinNoticeDays != 14 {
		t.Errorf("MinNoticeDays = %d, want 14", cfg.MinNoticeDays)
	}
	if cfg.StateTTL != 30*24*time.Hour {
		t.Errorf("StateTTL = %v, want 720h", cfg.StateTTL)
	}
	if cfg.AgentEmail == "" {
		t.Error("AgentEmail should have a default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORKER_COUNT", "7")
	t.Setenv("USE_MEMORY_QUEUE", "false")
	t.Setenv("LLM_RETRY_BASE_DELAY", "250ms")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.WorkerCount != 7 {
		t.Errorf("WorkerCount = %d, want 7", cfg.WorkerCount)
	}
	if cfg.UseMemoryQueue {
		t.Error("UseMemoryQueue should be false")
	}
	if cfg.LLMRetryBaseDelay != 250*time.Millisecond {
		t.Errorf("LLMRetryBaseDelay = %v, want 250ms", cfg.LLMRetryBaseDelay)
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Errorf("RateLimitPerSecond = %v, want 2.5", cfg.RateLimitPerSecond)
	}
}

func TestCORSOriginsList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	cfg := Load()

	origins := cfg.CORSOriginsList()
	if len(origins) != 2 {
		t.Fatalf("got %d origins, want 2", len(origins))
	}
	if origins[0] != "https://a.example" || origins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", origins)
	}
}

func TestIsProduction(t *testing.T) {
	t.Setenv("ENV", "Production")
	if !Load().IsProduction() {
		t.Error("IsProduction should be case-insensitive")
	}
}
