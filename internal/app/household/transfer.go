package household

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kidzy-family/kidzy/internal/domain"
)

// importKeys are the top-level keys of which an import needs at least one.
var importKeys = []string{"family", "kids", "transactions"}

// Export encodes the snapshot as an indented JSON document.
func Export(s domain.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(domain.Normalize(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Import parses an exported document. The result is merged over
// DefaultSnapshot and checked for integrity; adopt it with LoadData.
func Import(data []byte) (domain.Snapshot, error) {
	data = bytes.TrimSpace(data)
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return domain.Snapshot{}, &domain.ImportFormatError{Reason: "not a JSON object: " + err.Error()}
	}
	found := false
	for _, k := range importKeys {
		if raw, ok := keys[k]; ok && !bytes.Equal(raw, []byte("null")) {
			found = true
			break
		}
	}
	if !found {
		return domain.Snapshot{}, &domain.ImportFormatError{Reason: "document has none of family, kids, transactions"}
	}

	s, err := domain.DecodeSnapshot(data)
	if err != nil {
		return domain.Snapshot{}, &domain.ImportFormatError{Reason: err.Error()}
	}
	if err := CheckIntegrity(s); err != nil {
		return domain.Snapshot{}, &domain.ImportFormatError{Reason: err.Error()}
	}
	return s, nil
}
