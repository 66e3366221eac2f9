package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Output        string            `mapstructure:"output"`
	Quiet         bool              `mapstructure:"quiet"`
	Footer        string            `mapstructure:"footer"`
	Workers       int               `mapstructure:"workers"`
	LogLevel      string            `mapstructure:"log_level"`
	DateFormat    string            `mapstructure:"date_format"`
	StyleFile     string            `mapstructure:"style_file"`
	Styles        map[string]string `mapstructure:"styles"`
	GlamourStyle  string            `mapstructure:"glamour_style"`
	WatchDebounce time.Duration     `mapstructure:"watch_debounce"`
}

// C is the global config instance
var C Config

// DefaultFooter closes every generated document
const DefaultFooter = "###### Generated by mdmaker"

// Init initializes configuration with viper
func Init() error {
	viper.SetDefault("output", "")
	viper.SetDefault("quiet", false)
	viper.SetDefault("footer", DefaultFooter)
	viper.SetDefault("workers", 0)                     // 0 = one per CPU
	viper.SetDefault("log_level", "info")              // zerolog level name
	viper.SetDefault("date_format", "")                // Go time layout for @date
	viper.SetDefault("style_file", "")                 // TOML or YAML style sheet
	viper.SetDefault("styles", map[string]string{})    // token -> template overrides
	viper.SetDefault("glamour_style", "auto")          // preview theme
	viper.SetDefault("watch_debounce", 200*time.Millisecond)

	viper.SetConfigName("mdmaker")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "mdmaker"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("MDMAKER")
	viper.AutomaticEnv()

	// Try to read config, but don't fail if not found or malformed
	_ = viper.ReadInConfig()

	return viper.Unmarshal(&C)
}

// GetOutput returns the output target ("" for stdout, "null" for none)
func GetOutput() string {
	return expandTilde(viper.GetString("output"))
}

// GetQuiet returns whether UI and informational logging are suppressed
func GetQuiet() bool {
	return viper.GetBool("quiet")
}

// GetFooter returns the footer line appended after all inputs
func GetFooter() string {
	return viper.GetString("footer")
}

// GetWorkers returns the maximum number of files parsed concurrently
func GetWorkers() int {
	return viper.GetInt("workers")
}

// GetLogLevel returns the log level name
func GetLogLevel() string {
	return viper.GetString("log_level")
}

// GetDateFormat returns the layout used by @date
func GetDateFormat() string {
	return viper.GetString("date_format")
}

// GetStyleFile returns the style sheet path with tilde expansion
func GetStyleFile() string {
	return expandTilde(viper.GetString("style_file"))
}

// GetStyles returns style overrides from the config file
func GetStyles() map[string]string {
	return viper.GetStringMapString("styles")
}

// GetGlamourStyle returns the preview theme name
func GetGlamourStyle() string {
	return viper.GetString("glamour_style")
}

// GetWatchDebounce returns how long watch mode waits for changes to settle
func GetWatchDebounce() time.Duration {
	return viper.GetDuration("watch_debounce")
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// SetOutput sets the output target at runtime
func SetOutput(output string) {
	viper.Set("output", output)
	C.Output = output
}

// SetQuiet sets quiet mode at runtime
func SetQuiet(quiet bool) {
	viper.Set("quiet", quiet)
	C.Quiet = quiet
}

// SetFooter sets the footer at runtime
func SetFooter(footer string) {
	viper.Set("footer", footer)
	C.Footer = footer
}

// SetStyleFile sets the style sheet path at runtime
func SetStyleFile(path string) {
	viper.Set("style_file", path)
	C.StyleFile = path
}
