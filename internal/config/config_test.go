package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q", cfg.APIPort)
	}
	if cfg.NATSQueueGroup != "docflow-workers" {
		t.Errorf("NATSQueueGroup = %q", cfg.NATSQueueGroup)
	}
	if cfg.GroqModel != "llama-3.3-70b-versatile" {
		t.Errorf("GroqModel = %q", cfg.GroqModel)
	}
	if cfg.UploadMaxBytes != 10*1024*1024 {
		t.Errorf("UploadMaxBytes = %d", cfg.UploadMaxBytes)
	}
	if cfg.ListDefaultLimit != 50 {
		t.Errorf("ListDefaultLimit = %d", cfg.ListDefaultLimit)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Errorf("APIRateLimitRPS = %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("NATS_URL", "nats://broker:4222")

	cfg := Load()
	if cfg.APIPort != "9999" {
		t.Errorf("APIPort = %q", cfg.APIPort)
	}
	if cfg.UploadMaxBytes != 1024 {
		t.Errorf("UploadMaxBytes = %d", cfg.UploadMaxBytes)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Errorf("APIRateLimitRPS = %v", cfg.APIRateLimitRPS)
	}
	if cfg.NATSURL != "nats://broker:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("UPLOAD_MAX_BYTES", "not-a-number")
	t.Setenv("LIST_DEFAULT_LIMIT", "")

	cfg := Load()
	if cfg.UploadMaxBytes != 10*1024*1024 {
		t.Errorf("UploadMaxBytes = %d, want default", cfg.UploadMaxBytes)
	}
	if cfg.ListDefaultLimit != 50 {
		t.Errorf("ListDefaultLimit = %d, want default", cfg.ListDefaultLimit)
	}
}
