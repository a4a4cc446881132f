// Package config provides configuration structures and loading for typemerge.
package config

// Config represents the complete application configuration.
type Config struct {
	Document     DocumentConfig     `yaml:"document" mapstructure:"document"`
	Selection    SelectionConfig    `yaml:"selection" mapstructure:"selection"`
	Processing   ProcessingConfig   `yaml:"processing" mapstructure:"processing"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// DocumentConfig represents the document store to operate on.
type DocumentConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`               // Store directory
	Family     string `yaml:"family" mapstructure:"family"`           // Type family to merge within
	SyncWrites bool   `yaml:"sync_writes" mapstructure:"sync_writes"` // Fsync every store write
}

// SelectionConfig controls how purge and replacement types are chosen.
type SelectionConfig struct {
	Mode        string   `yaml:"mode" mapstructure:"mode"` // interactive or scripted
	Purge       []string `yaml:"purge" mapstructure:"purge"`
	Replacement string   `yaml:"replacement" mapstructure:"replacement"`
}

// ProcessingConfig represents reassignment sweep settings.
type ProcessingConfig struct {
	ProgressEvery int `yaml:"progress_every" mapstructure:"progress_every"` // Log progress every N instances
}

// VerificationConfig represents post-merge verification settings.
type VerificationConfig struct {
	SkipVerification bool `yaml:"skip_verification" mapstructure:"skip_verification"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// SelectionModeInteractive prompts the operator with a selection list.
const SelectionModeInteractive = "interactive"

// SelectionModeScripted resolves purge and replacement from configuration.
const SelectionModeScripted = "scripted"

// Scripted reports whether selection runs without operator prompts.
func (s *SelectionConfig) Scripted() bool {
	return s.Mode == SelectionModeScripted
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Document: DocumentConfig{
			SyncWrites: false,
		},
		Selection: SelectionConfig{
			Mode: SelectionModeInteractive,
		},
		Processing: ProcessingConfig{
			ProgressEvery: 100,
		},
		Verification: VerificationConfig{
			SkipVerification: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}
