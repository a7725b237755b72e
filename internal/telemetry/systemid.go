// systemid.go anonymous installation identifier for telemetry
package telemetry

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/errors"
)

// GenerateSystemID creates a fresh installation identifier, 12 hex
// characters formatted as XXXX-XXXX-XXXX. The ID carries no host or
// user information, it only lets repeat reports from one install group
// together.
func GenerateSystemID() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.New(err).
			Component("telemetry").
			Category(errors.CategorySystem).
			Context("operation", "generate-system-id").
			Build()
	}

	id := hex.EncodeToString(bytes)
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", id[0:4], id[4:8], id[8:12])), nil
}

// EnsureSystemID fills settings.SystemID, loading the persisted ID or
// creating one next to the config file.
func EnsureSystemID(settings *conf.Settings) error {
	if settings.SystemID != "" {
		return nil
	}

	paths, err := conf.GetDefaultConfigPaths()
	if err != nil || len(paths) == 0 {
		// No config directory to persist in, use an ephemeral ID.
		id, genErr := GenerateSystemID()
		if genErr != nil {
			return genErr
		}
		settings.SystemID = id
		return nil
	}

	id, err := LoadOrCreateSystemID(paths[0])
	if err != nil {
		return err
	}
	settings.SystemID = id
	return nil
}

// LoadOrCreateSystemID reads the persisted system ID from configDir,
// generating and saving a new one when missing or malformed.
func LoadOrCreateSystemID(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", errors.New(err).
			Component("telemetry").
			Category(errors.CategoryFileIO).
			Context("operation", "create-config-dir").
			Build()
	}

	idFile := filepath.Join(configDir, ".system_id")

	if data, err := os.ReadFile(idFile); err == nil { //nolint:gosec // G304: path is under the app config dir
		id := strings.TrimSpace(string(data))
		if validSystemID(id) {
			return id, nil
		}
	}

	id, err := GenerateSystemID()
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(idFile, []byte(id), 0o644); err != nil { //nolint:gosec // G306: ID is not a secret
		return "", errors.New(err).
			Component("telemetry").
			Category(errors.CategoryFileIO).
			Context("operation", "save-system-id").
			Build()
	}

	return id, nil
}

// validSystemID checks the XXXX-XXXX-XXXX format.
func validSystemID(id string) bool {
	if len(id) != 14 || id[4] != '-' || id[9] != '-' {
		return false
	}
	for i, r := range id {
		if i == 4 || i == 9 {
			continue
		}
		if !isHexChar(r) {
			return false
		}
	}
	return true
}

// isHexChar checks if a rune is a valid hex character.
func isHexChar(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}
