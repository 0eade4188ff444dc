package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Analysis.StepDelay != 800*time.Millisecond {
		t.Errorf("step delay = %s", cfg.Analysis.StepDelay)
	}
	if cfg.Analysis.PassProbability != 0.7 {
		t.Errorf("pass probability = %v", cfg.Analysis.PassProbability)
	}
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("session ttl = %s", cfg.Server.SessionTTL)
	}
	if cfg.GeoIP.Enabled() {
		t.Errorf("geoip should be disabled by default")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q", cfg.Log.Format)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urlguard.yaml")
	body := `
server:
  addr: "127.0.0.1:9000"
  rate_limit: 0
analysis:
  step_delay: 10ms
  seed: 7
geoip:
  city_db: /data/GeoLite2-City.mmdb
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("URLGUARD_ANALYSIS_PASS_PROBABILITY", "0.5")

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.RateLimit != 0 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Analysis.StepDelay != 10*time.Millisecond || cfg.Analysis.Seed != 7 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Analysis.PassProbability != 0.5 {
		t.Errorf("env override ignored: %v", cfg.Analysis.PassProbability)
	}
	if !cfg.GeoIP.Enabled() || cfg.GeoIP.CityDB != "/data/GeoLite2-City.mmdb" {
		t.Errorf("geoip = %+v", cfg.GeoIP)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Analysis.PassProbability = 1.5
	cfg.Server.Addr = ""
	err = cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"pass_probability", "server.addr"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
