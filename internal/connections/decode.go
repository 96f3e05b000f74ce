package connections

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jonathan/ipp-client/internal/logging"
	"github.com/jonathan/ipp-client/internal/schemas"
	rootschemas "github.com/jonathan/ipp-client/schemas"
)

var (
	enhancedSchema = schemas.MustCompile(rootschemas.ConnectionsEnhanced, rootschemas.MustRead(rootschemas.ConnectionsEnhanced))
	legacySchema   = schemas.MustCompile(rootschemas.ConnectionsLegacy, rootschemas.MustRead(rootschemas.ConnectionsLegacy))
)

// Decode classifies raw into a Payload. Empty or null input yields VersionNone and no
// error. Input matching neither schema yields VersionNone and the legacy schema's
// validation error.
func Decode(raw json.RawMessage) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{Version: VersionNone}, nil
	}

	if enhancedSchema.Validate(trimmed) == nil {
		var p EnhancedPayload
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return Payload{}, fmt.Errorf("decode enhanced connections: %w", err)
		}
		// All-null lists fall through to the legacy reading.
		if p.hasLists() {
			return Payload{Version: VersionEnhanced, Enhanced: &p}, nil
		}
	}

	if err := legacySchema.Validate(trimmed); err != nil {
		return Payload{Version: VersionNone}, err
	}
	var p LegacyPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return Payload{}, fmt.Errorf("decode legacy connections: %w", err)
	}
	return Payload{Version: VersionLegacy, Legacy: &p}, nil
}

// Parse decodes raw and normalizes it in one step. The result is nil when raw carries
// no connections analysis.
func Parse(raw json.RawMessage, logger *slog.Logger) (*SkillAlignment, error) {
	logger = logging.OrDiscard(logger)

	p, err := Decode(raw)
	if err != nil {
		logger.Warn("connections.decode.failed", "error", err)
		return nil, err
	}
	if p.Version == VersionLegacy {
		a, fallback := fromLegacy(p.Legacy)
		if fallback {
			logger.Warn("connections.legacy.empty", "detail", "no matches or gaps, using unique strengths")
		}
		return a, nil
	}
	return Normalize(p), nil
}
