package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigSanity(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Matching.MinimumMatch <= 0 || cfg.Matching.MinimumMatch > 1 {
		t.Errorf("MinimumMatch = %v, want in (0,1]", cfg.Matching.MinimumMatch)
	}
	if cfg.Tokens.Sep == "" {
		t.Error("Tokens.Sep is empty")
	}
	if cfg.CLI.DefaultLimit <= 0 {
		t.Errorf("CLI.DefaultLimit = %d, want > 0", cfg.CLI.DefaultLimit)
	}
}

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	original := DefaultConfig()
	original.Matching.MinimumMatch = 0.6
	original.Output.Limit = 25
	original.CLI.DefaultLimit = 7

	if err := SaveConfig(original, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Matching.MinimumMatch != 0.6 {
		t.Errorf("MinimumMatch = %v, want 0.6", loaded.Matching.MinimumMatch)
	}
	if loaded.Output.Limit != 25 {
		t.Errorf("Output.Limit = %d, want 25", loaded.Output.Limit)
	}
	if loaded.CLI.DefaultLimit != 7 {
		t.Errorf("CLI.DefaultLimit = %d, want 7", loaded.CLI.DefaultLimit)
	}
}

func TestInitConfigCreatesFileWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	if cfg == nil {
		t.Fatal("InitConfig returned nil config")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file at %s: %v", path, err)
	}
}

func TestLoadConfigPartialParseRecoversGoodSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	// score_round is malformed (a string where a float is expected); the
	// matching section otherwise parses, and tokens should fall back to
	// defaults untouched.
	contents := `
[matching]
minimum_match = 0.75
score_round = "not-a-number"

[output]
output_limit = 42
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Matching.MinimumMatch != 0.75 {
		t.Errorf("MinimumMatch = %v, want 0.75 (recovered)", cfg.Matching.MinimumMatch)
	}
	if cfg.Output.Limit != 42 {
		t.Errorf("Output.Limit = %d, want 42 (recovered)", cfg.Output.Limit)
	}
	if cfg.Tokens.Sep != DefaultConfig().Tokens.Sep {
		t.Errorf("Tokens.Sep = %q, want default (section absent from file)", cfg.Tokens.Sep)
	}
}

func TestValidateClampsOutOfRangeValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Matching.ThreshRelativeToBest = 5
	cfg.Matching.BonusPositionDecay = -1
	cfg.Matching.ScoreRound = 0
	cfg.Matching.FieldGoodEnough = -10

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Matching.ThreshRelativeToBest != 1 {
		t.Errorf("ThreshRelativeToBest = %v, want clamped to 1", cfg.Matching.ThreshRelativeToBest)
	}
	if cfg.Matching.BonusPositionDecay != 0.7 {
		t.Errorf("BonusPositionDecay = %v, want reset to 0.7", cfg.Matching.BonusPositionDecay)
	}
	if cfg.Matching.ScoreRound != 10 {
		t.Errorf("ScoreRound = %v, want reset to 10", cfg.Matching.ScoreRound)
	}
	if cfg.Matching.FieldGoodEnough != 20 {
		t.Errorf("FieldGoodEnough = %v, want reset to 20", cfg.Matching.FieldGoodEnough)
	}
}
