package albumsyncconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GooglePhotosConfig defines the configuration specific to Google Photos.
type GooglePhotosConfig struct {
	ClientId     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

// UploadConfig tunes the upload run. RequestTimeout bounds each API call and
// RunDeadline bounds the whole run; zero disables either limit.
type UploadConfig struct {
	Parallelism         int           `mapstructure:"parallelism"`
	MaxTransientRetries int           `mapstructure:"max_transient_retries"`
	RequestsPerSecond   float64       `mapstructure:"requests_per_second"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	RunDeadline         time.Duration `mapstructure:"run_deadline"`
	StateFile           string        `mapstructure:"state_file"`
}

// AlbumsyncConfig defines the configuration for Albumsync.
type AlbumsyncConfig struct {
	GooglePhotos GooglePhotosConfig `mapstructure:"google_photos"`
	Upload       UploadConfig       `mapstructure:"upload"`

	path string `mapstructure:"-"`
}

func (c *GooglePhotosConfig) Validate() error {
	// Check that at least a base set of fields have values.
	if c.ClientId == "" || c.ClientSecret == "" {
		return fmt.Errorf("missing google photos client_id or client_secret")
	}
	if c.RedirectURI == "" {
		c.RedirectURI = "http://localhost:8080" // Default redirect URI
		fmt.Printf("Warning: google_photos.redirect_uri not set in config, using default: %s\n", c.RedirectURI)
	}
	return nil
}

func (c *AlbumsyncConfig) Validate() error {
	if err := c.GooglePhotos.Validate(); err != nil {
		return fmt.Errorf("invalid google_photos config (%s): %w", c.path, err)
	}
	if c.Upload.Parallelism < 0 {
		return fmt.Errorf("upload.parallelism must not be negative (%s)", c.path)
	}
	if c.Upload.MaxTransientRetries < 0 {
		return fmt.Errorf("upload.max_transient_retries must not be negative (%s)", c.path)
	}
	if c.Upload.RequestsPerSecond < 0 {
		return fmt.Errorf("upload.requests_per_second must not be negative (%s)", c.path)
	}
	if c.Upload.RequestTimeout < 0 {
		return fmt.Errorf("upload.request_timeout must not be negative (%s)", c.path)
	}
	if c.Upload.RunDeadline < 0 {
		return fmt.Errorf("upload.run_deadline must not be negative (%s)", c.path)
	}
	if c.Upload.StateFile == "" {
		path, err := DefaultStateFilePath()
		if err != nil {
			return err
		}
		c.Upload.StateFile = path
	}
	return nil
}

// DefaultConfigPath returns the default path for the Albumsync config file.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user config dir: %w", err)
	}
	return filepath.Join(dir, "albumsync", "config.toml"), nil
}

// DefaultStateFilePath returns the default path for the upload state file.
func DefaultStateFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user config dir: %w", err)
	}
	return filepath.Join(dir, "albumsync", "upload-state.json"), nil
}

// DefaultTokenFilePath returns the default path for the cached OAuth token.
func DefaultTokenFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user config dir: %w", err)
	}
	return filepath.Join(dir, "albumsync", "google_photos_token.json"), nil
}

// getConfigPath determines where to read the config file from.
func getConfigPath(configPathFlag string) (string, error) {
	// Prefer user-specific config file path if specified.
	if configPathFlag != "" {
		return configPathFlag, nil
	}

	// Fall back to user config dir.
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "albumsync", "config.toml"), nil
	}
	return "", fmt.Errorf("unable to determine config file path")
}

// LoadConfig reads the config file. Values can be overridden via environment
// variables, eg ALBUMSYNC_UPLOAD_PARALLELISM for upload.parallelism.
func LoadConfig(configPathFlag string) (AlbumsyncConfig, error) {
	path, err := getConfigPath(configPathFlag)
	if err != nil {
		return AlbumsyncConfig{}, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("ALBUMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return AlbumsyncConfig{}, fmt.Errorf("error reading (%s): %w", path, err)
	}
	config := AlbumsyncConfig{path: path}
	if err := v.Unmarshal(&config); err != nil {
		return AlbumsyncConfig{}, fmt.Errorf("error unmarshaling (%s): %w", path, err)
	}
	return config, nil
}
