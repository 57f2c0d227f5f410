// Package buildinfo carries build metadata and the persistent system ID.
package buildinfo

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// UnknownValue is returned for metadata that was not set at build time.
const UnknownValue = "unknown"

// systemIDFile is stored next to the config file.
const systemIDFile = ".system_id"

var systemIDPattern = regexp.MustCompile(`^[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}$`)

// Context is injected at startup from ldflags.
type Context struct {
	Version   string
	BuildDate string
	SystemID  string
}

// NewContext returns a Context with the given values.
func NewContext(version, buildDate, systemID string) *Context {
	return &Context{Version: version, BuildDate: buildDate, SystemID: systemID}
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownValue
	}
	return s
}

// GetVersion returns the version or UnknownValue.
func (c *Context) GetVersion() string {
	if c == nil {
		return UnknownValue
	}
	return orUnknown(c.Version)
}

// GetBuildDate returns the build date or UnknownValue.
func (c *Context) GetBuildDate() string {
	if c == nil {
		return UnknownValue
	}
	return orUnknown(c.BuildDate)
}

// GetSystemID returns the system ID or UnknownValue.
func (c *Context) GetSystemID() string {
	if c == nil {
		return UnknownValue
	}
	return orUnknown(c.SystemID)
}

// GenerateSystemID returns a random ID formatted XXXX-XXXX-XXXX.
func GenerateSystemID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", errors.New(err).
			Component("buildinfo").
			Category(errors.CategorySystem).
			Build()
	}
	id := strings.ToUpper(hex.EncodeToString(b))
	return id[0:4] + "-" + id[4:8] + "-" + id[8:12], nil
}

// LoadOrCreateSystemID reads the ID stored in dir, creating it on first use.
// The ID names this installation in MQTT discovery and telemetry.
func LoadOrCreateSystemID(dir string) (string, error) {
	path := filepath.Join(dir, systemIDFile)
	if data, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(data)); systemIDPattern.MatchString(id) {
			return id, nil
		}
	}

	id, err := GenerateSystemID()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fileError(err, path)
	}
	if err := os.WriteFile(path, []byte(id), 0o644); err != nil {
		return "", fileError(err, path)
	}
	return id, nil
}

func fileError(err error, path string) error {
	return errors.New(err).
		Component("buildinfo").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()
}
