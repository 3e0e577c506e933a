package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks values that parse but make no sense.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER=%q: want sqlite or postgres", c.DBDriver))
	}
	switch strings.ToLower(c.LLMProvider) {
	case "openai", "gemini", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER=%q: want openai, gemini or anthropic", c.LLMProvider))
	}
	switch strings.ToLower(c.TechnicalBackend) {
	case "embedding", "heuristic", "none":
	default:
		errs = append(errs, fmt.Errorf("TECHNICAL_BACKEND=%q: want embedding, heuristic or none", c.TechnicalBackend))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT=%q: want json or text", c.LogFormat))
	}

	if c.TechnicalWeight < 0 || c.TechnicalWeight > 1 {
		errs = append(errs, fmt.Errorf("TECHNICAL_WEIGHT=%v: must be within [0, 1]", c.TechnicalWeight))
	}
	if c.MinAnswerLength < 1 {
		errs = append(errs, fmt.Errorf("MIN_ANSWER_LENGTH=%d: must be positive", c.MinAnswerLength))
	}
	if c.GradingWorkers < 1 {
		errs = append(errs, fmt.Errorf("GRADING_WORKERS=%d: must be positive", c.GradingWorkers))
	}
	if c.RegressionMax <= 0 {
		errs = append(errs, fmt.Errorf("REGRESSION_MAX_SCORE=%v: must be positive", c.RegressionMax))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LLM_TIMEOUT=%v: must be positive", c.LLMTimeout))
	}

	return errors.Join(errs...)
}
