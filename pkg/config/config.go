/*
Package config manages TOML configuration for the matching engine and its
surrounding server/CLI tooling.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/corpusmatch/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure.
type Config struct {
	Matching  MatchingConfig  `toml:"matching"`
	Tokens    TokenConfig     `toml:"tokens"`
	Highlight HighlightConfig `toml:"highlight"`
	Store     StoreConfig     `toml:"store"`
	Output    OutputConfig    `toml:"output"`
	CLI       CLIConfig       `toml:"cli"`
}

// MatchingConfig controls score composition and acceptance thresholds.
type MatchingConfig struct {
	MinimumMatch         float64 `toml:"minimum_match"`
	ThreshInclude        float64 `toml:"thresh_include"`
	ThreshRelativeToBest float64 `toml:"thresh_relative_to_best"`
	FieldGoodEnough      float64 `toml:"field_good_enough"`
	BonusMatchStart      float64 `toml:"bonus_match_start"`
	BonusTokenOrder      float64 `toml:"bonus_token_order"`
	BonusPositionDecay   float64 `toml:"bonus_position_decay"`
	ScorePerToken        bool    `toml:"score_per_token"`
	ScoreTestFused       bool    `toml:"score_test_fused"`
	ScoreAcronym         bool    `toml:"score_acronym"`
	ScoreRound           float64 `toml:"score_round"`
}

// TokenConfig controls the size discipline of the field extractor and the
// kernel's size-ratio guard.
type TokenConfig struct {
	Sep            string  `toml:"token_sep"`
	QueryMinLength int     `toml:"token_query_min_length"`
	FieldMinLength int     `toml:"token_field_min_length"`
	QueryMaxLength int     `toml:"token_query_max_length"`
	FieldMaxLength int     `toml:"token_field_max_length"`
	FusedMaxLength int     `toml:"token_fused_max_length"`
	MinRelSize     float64 `toml:"token_min_rel_size"`
	MaxRelSize     float64 `toml:"token_max_rel_size"`
}

// HighlightConfig controls the alignment and highlight assembly stages.
type HighlightConfig struct {
	Prefix    bool   `toml:"highlight_prefix"`
	BridgeGap int    `toml:"highlight_bridge_gap"`
	Before    string `toml:"highlight_before"`
	After     string `toml:"highlight_after"`
}

// StoreConfig controls the optional n-gram pre-filter.
type StoreConfig struct {
	Enabled    bool    `toml:"use_index_store"`
	Thresh     float64 `toml:"store_thresh"`
	MaxResults int     `toml:"store_max_results"`
}

// OutputConfig controls result shaping.
type OutputConfig struct {
	Limit int `toml:"output_limit"`
}

// CLIConfig holds the debug CLI's default flag values.
type CLIConfig struct {
	DefaultLimit  int `toml:"cli_default_limit"`
	DefaultMinLen int `toml:"cli_default_min_len"`
	DefaultMaxLen int `toml:"cli_default_max_len"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "corpusmatch")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "corpusmatch")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/corpusmatch/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with sane out-of-the-box values.
func DefaultConfig() *Config {
	return &Config{
		Matching: MatchingConfig{
			MinimumMatch:         0.45,
			ThreshInclude:        0.2,
			ThreshRelativeToBest: 0.3,
			FieldGoodEnough:      20,
			BonusMatchStart:      0.5,
			BonusTokenOrder:      1,
			BonusPositionDecay:   0.7,
			ScorePerToken:        true,
			ScoreTestFused:       true,
			ScoreAcronym:         false,
			ScoreRound:           0.1,
		},
		Tokens: TokenConfig{
			Sep:            " \t\n\r_-./",
			QueryMinLength: 1,
			FieldMinLength: 2,
			QueryMaxLength: 64,
			FieldMaxLength: 64,
			FusedMaxLength: 128,
			MinRelSize:     0,
			MaxRelSize:     3,
		},
		Highlight: HighlightConfig{
			Prefix:    false,
			BridgeGap: 2,
			Before:    "",
			After:     "",
		},
		Store: StoreConfig{
			Enabled:    false,
			Thresh:     0.5,
			MaxResults: 100,
		},
		Output: OutputConfig{
			Limit: 0,
		},
		CLI: CLIConfig{
			DefaultLimit:  10,
			DefaultMinLen: 1,
			DefaultMaxLen: 64,
		},
	}
}

// InitConfig loads config from file or creates default if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// tryPartialParse attempts to recover whatever sections of a TOML file do
// parse, rather than discarding the whole file over one bad key.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "matching"); ok {
		extractMatchingConfig(section, &config.Matching)
	}
	if section, ok := utils.ExtractSection(tempConfig, "tokens"); ok {
		extractTokenConfig(section, &config.Tokens)
	}
	if section, ok := utils.ExtractSection(tempConfig, "highlight"); ok {
		extractHighlightConfig(section, &config.Highlight)
	}
	if section, ok := utils.ExtractSection(tempConfig, "store"); ok {
		extractStoreConfig(section, &config.Store)
	}
	if section, ok := utils.ExtractSection(tempConfig, "output"); ok {
		extractOutputConfig(section, &config.Output)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCLIConfig(section, &config.CLI)
	}
	return config, nil
}

func extractMatchingConfig(data map[string]any, m *MatchingConfig) {
	if val, ok := utils.ExtractFloat64(data, "minimum_match"); ok {
		m.MinimumMatch = val
	}
	if val, ok := utils.ExtractFloat64(data, "thresh_include"); ok {
		m.ThreshInclude = val
	}
	if val, ok := utils.ExtractFloat64(data, "thresh_relative_to_best"); ok {
		m.ThreshRelativeToBest = val
	}
	if val, ok := utils.ExtractFloat64(data, "field_good_enough"); ok {
		m.FieldGoodEnough = val
	}
	if val, ok := utils.ExtractFloat64(data, "bonus_match_start"); ok {
		m.BonusMatchStart = val
	}
	if val, ok := utils.ExtractFloat64(data, "bonus_token_order"); ok {
		m.BonusTokenOrder = val
	}
	if val, ok := utils.ExtractFloat64(data, "bonus_position_decay"); ok {
		m.BonusPositionDecay = val
	}
	if val, ok := utils.ExtractBool(data, "score_per_token"); ok {
		m.ScorePerToken = val
	}
	if val, ok := utils.ExtractBool(data, "score_test_fused"); ok {
		m.ScoreTestFused = val
	}
	if val, ok := utils.ExtractBool(data, "score_acronym"); ok {
		m.ScoreAcronym = val
	}
	if val, ok := utils.ExtractFloat64(data, "score_round"); ok {
		m.ScoreRound = val
	}
}

func extractTokenConfig(data map[string]any, tok *TokenConfig) {
	if val, ok := data["token_sep"].(string); ok {
		tok.Sep = val
	}
	if val, ok := utils.ExtractInt64(data, "token_query_min_length"); ok {
		tok.QueryMinLength = val
	}
	if val, ok := utils.ExtractInt64(data, "token_field_min_length"); ok {
		tok.FieldMinLength = val
	}
	if val, ok := utils.ExtractInt64(data, "token_query_max_length"); ok {
		tok.QueryMaxLength = val
	}
	if val, ok := utils.ExtractInt64(data, "token_field_max_length"); ok {
		tok.FieldMaxLength = val
	}
	if val, ok := utils.ExtractInt64(data, "token_fused_max_length"); ok {
		tok.FusedMaxLength = val
	}
	if val, ok := utils.ExtractFloat64(data, "token_min_rel_size"); ok {
		tok.MinRelSize = val
	}
	if val, ok := utils.ExtractFloat64(data, "token_max_rel_size"); ok {
		tok.MaxRelSize = val
	}
}

func extractHighlightConfig(data map[string]any, h *HighlightConfig) {
	if val, ok := utils.ExtractBool(data, "highlight_prefix"); ok {
		h.Prefix = val
	}
	if val, ok := utils.ExtractInt64(data, "highlight_bridge_gap"); ok {
		h.BridgeGap = val
	}
	if val, ok := data["highlight_before"].(string); ok {
		h.Before = val
	}
	if val, ok := data["highlight_after"].(string); ok {
		h.After = val
	}
}

func extractStoreConfig(data map[string]any, s *StoreConfig) {
	if val, ok := utils.ExtractBool(data, "use_index_store"); ok {
		s.Enabled = val
	}
	if val, ok := utils.ExtractFloat64(data, "store_thresh"); ok {
		s.Thresh = val
	}
	if val, ok := utils.ExtractInt64(data, "store_max_results"); ok {
		s.MaxResults = val
	}
}

func extractOutputConfig(data map[string]any, o *OutputConfig) {
	if val, ok := utils.ExtractInt64(data, "output_limit"); ok {
		o.Limit = val
	}
}

func extractCLIConfig(data map[string]any, c *CLIConfig) {
	if val, ok := utils.ExtractInt64(data, "cli_default_limit"); ok {
		c.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "cli_default_min_len"); ok {
		c.DefaultMinLen = val
	}
	if val, ok := utils.ExtractInt64(data, "cli_default_max_len"); ok {
		c.DefaultMaxLen = val
	}
}

// Validate checks the invariants that TOML decoding alone can't enforce.
func (c *Config) Validate() error {
	if c.Matching.ThreshRelativeToBest < 0 || c.Matching.ThreshRelativeToBest > 1 {
		log.Warnf("config: thresh_relative_to_best %v out of [0,1], clamping", c.Matching.ThreshRelativeToBest)
		c.Matching.ThreshRelativeToBest = clamp01(c.Matching.ThreshRelativeToBest)
	}
	if c.Matching.BonusPositionDecay <= 0 || c.Matching.BonusPositionDecay > 1 {
		log.Warnf("config: bonus_position_decay %v out of (0,1], using default", c.Matching.BonusPositionDecay)
		c.Matching.BonusPositionDecay = 0.7
	}
	if c.Matching.ScoreRound <= 0 {
		c.Matching.ScoreRound = 10
	}
	if c.Store.Enabled && c.Store.MaxResults <= 0 {
		c.Store.MaxResults = 100
	}
	if c.Matching.FieldGoodEnough <= 0 {
		c.Matching.FieldGoodEnough = 20
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RebuildConfigFile force creates a new config.toml at the default path.
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	config := DefaultConfig()
	return utils.SaveTOMLFile(config, defaultPath)
}

// GetActiveConfigPath returns the absolute path of the loaded config file.
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file.
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
