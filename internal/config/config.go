package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// DatabaseURL is the postgres connection string for the occupancy and
	// output tables.
	DatabaseURL string `yaml:"databaseURL" validate:"required"`

	// Statistic selects the default need scenario (mean, median, p25, p75).
	Statistic string `yaml:"statistic,omitempty" validate:"omitempty,oneof=mean median p25 p75"`

	// SlotWidthMinutes overrides slot-width auto-detection when set.
	SlotWidthMinutes int `yaml:"slotWidthMinutes,omitempty" validate:"omitempty,min=1,max=1440"`

	// ToleranceAbsHours and ToleranceRel bound reconciliation drift. Nil means
	// the engine defaults; non-positive values fall back with a warning.
	ToleranceAbsHours *float64 `yaml:"toleranceAbsHours,omitempty"`
	ToleranceRel      *float64 `yaml:"toleranceRel,omitempty"`

	// ClosureDates are explicit dates the facility does not operate.
	ClosureDates []string `yaml:"closureDates,omitempty" validate:"omitempty,dive,datetime=2006-01-02"`

	// ClosureRules are RRULE recurrences expanded over the analysis window
	// (e.g. "FREQ=WEEKLY;BYDAY=SU" for a facility closed on Sundays).
	ClosureRules []string `yaml:"closureRules,omitempty"`

	// RoleCapabilities optionally re-keys raw roles to capability groups
	// before analysis. The engine itself never pattern-matches role strings.
	RoleCapabilities map[string]string `yaml:"roleCapabilities,omitempty"`

	// WageRates maps roles to hourly rates for the costed summary.
	WageRates map[string]float64 `yaml:"wageRates,omitempty" validate:"omitempty,dive,min=0"`

	// Workbook ingestion defaults.
	WorkbookSheet string `yaml:"workbookSheet,omitempty"`

	// Google Sheets ingestion source.
	OccupancySheetID    string `yaml:"occupancySheetID,omitempty"`
	OccupancySheetRange string `yaml:"occupancySheetRange,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from shiftlens.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates the configuration with an environment suffix
// For example, env="test" will look for "shiftlens.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Validate rrule syntax for each closure rule
	for i, rule := range cfg.ClosureRules {
		if _, err := rrule.StrToRRule(rule); err != nil {
			return fmt.Errorf("invalid rrule in closureRules[%d]: %w", i, err)
		}
	}

	return nil
}

// findConfigFile searches for shiftlens.yaml in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "shiftlens.test.yaml")
func findConfigFile(env string) (string, error) {
	configFileName := "shiftlens.yaml"
	if env != "" {
		configFileName = "shiftlens." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
