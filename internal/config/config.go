// Package config defines the catalog service configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/abgdnv/gocatalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

const (
	BackendLocal      = "local"
	BackendCloudinary = "cloudinary"
)

type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Database   config.DatabaseConfig  `koanf:"database"`
	Storage    StorageConfig          `koanf:"storage"`
	NATS       config.NATSConfig      `koanf:"nats"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
}

// StorageConfig selects and configures the image store backend.
type StorageConfig struct {
	Backend        string `koanf:"backend"`
	Quality        int    `koanf:"quality"`
	MaxUploadBytes int64  `koanf:"maxUploadBytes"`
	Local          struct {
		Dir     string `koanf:"dir"`
		BaseURL string `koanf:"baseUrl"`
	} `koanf:"local"`
	Cloudinary struct {
		URL    string `koanf:"url"`
		Folder string `koanf:"folder"`
	} `koanf:"cloudinary"`
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Local.Dir == "" {
			return fmt.Errorf("storage.local.dir is not configured")
		}
		if c.Local.BaseURL == "" {
			return fmt.Errorf("storage.local.baseUrl is not configured")
		}
	case BackendCloudinary:
		if c.Cloudinary.URL == "" {
			return fmt.Errorf("storage.cloudinary.url is not configured")
		}
		if c.Cloudinary.Folder == "" {
			return fmt.Errorf("storage.cloudinary.folder is not configured")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q (expected %q or %q)", c.Backend, BackendLocal, BackendCloudinary)
	}
	if c.Quality <= 0 || c.Quality > 100 {
		return fmt.Errorf("storage.quality must be in (0, 100]: %d", c.Quality)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("storage.maxUploadBytes is not configured")
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  server.maxHeaderBytes: %d\n", c.HTTPServer.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write))
	b.WriteString(fmt.Sprintf("  server.timeout.idle: %v\n", c.HTTPServer.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  server.timeout.readHeader: %v\n", c.HTTPServer.Timeout.ReadHeader))

	b.WriteString("\n--- Database Configuration ---\n")
	b.WriteString(fmt.Sprintf("  database.url: %s\n", maskURL(c.Database.URL)))
	b.WriteString(fmt.Sprintf("  database.connect.timeout: %s\n", c.Database.Timeout))

	b.WriteString("\n--- Storage Configuration ---\n")
	b.WriteString(fmt.Sprintf("  storage.backend: %s\n", c.Storage.Backend))
	b.WriteString(fmt.Sprintf("  storage.quality: %d\n", c.Storage.Quality))
	b.WriteString(fmt.Sprintf("  storage.maxUploadBytes: %d\n", c.Storage.MaxUploadBytes))
	b.WriteString(fmt.Sprintf("  storage.local.dir: %s\n", c.Storage.Local.Dir))
	b.WriteString(fmt.Sprintf("  storage.local.baseUrl: %s\n", c.Storage.Local.BaseURL))
	b.WriteString(fmt.Sprintf("  storage.cloudinary.url: %s\n", maskURL(c.Storage.Cloudinary.URL)))
	b.WriteString(fmt.Sprintf("  storage.cloudinary.folder: %s\n", c.Storage.Cloudinary.Folder))

	b.WriteString("\n--- Messaging ---\n")
	b.WriteString(fmt.Sprintf("  nats.enabled: %t\n", c.NATS.Enabled))
	b.WriteString(fmt.Sprintf("  nats.url: %s\n", c.NATS.Url))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.address: %s\n", c.PProf.Addr))
	b.WriteString(fmt.Sprintf("  telemetry.enabled: %t\n", c.Telemetry.Enabled))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	// Mask the URL by replacing the username and password with "****"
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	return nil
}
