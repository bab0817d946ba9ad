// ABOUTME: Column settings parsing for relationship-bearing columns
// ABOUTME: Decodes settings_str blobs into a closed set of typed variants
package sync

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pulsemap/pulsemap/monday"
)

// ColumnSettings is the decoded form of a relation column's settings_str.
// Exactly one of the variants below is returned for every blob; malformed
// or unrecognized input becomes UnparseableSettings rather than an error,
// so one bad column never aborts a sync.
type ColumnSettings interface {
	isColumnSettings()
}

// ConnectBoardsSettings holds the target boards of a connect-boards or
// dependency column.
type ConnectBoardsSettings struct {
	BoardIDs []string
}

// MirrorSettings holds the board a mirror column reflects values from.
type MirrorSettings struct {
	LinkedBoardID  string
	MirrorColumnID string
}

// UnparseableSettings records why a settings blob could not be decoded.
type UnparseableSettings struct {
	Reason string
}

func (ConnectBoardsSettings) isColumnSettings() {}
func (MirrorSettings) isColumnSettings()        {}
func (UnparseableSettings) isColumnSettings()   {}

// ParseColumnSettings decodes a settings_str blob according to the column
// type. Board ids arrive as JSON numbers in settings blobs even though the
// API serves them as strings everywhere else, so both forms are accepted.
func ParseColumnSettings(columnType, settingsStr string) ColumnSettings {
	if settingsStr == "" || settingsStr == "{}" {
		return UnparseableSettings{Reason: "empty settings"}
	}

	switch columnType {
	case monday.ColumnTypeBoardRelation, monday.ColumnTypeDependency:
		return parseConnectBoards(settingsStr)
	case monday.ColumnTypeMirror:
		return parseMirror(settingsStr)
	default:
		return UnparseableSettings{Reason: fmt.Sprintf("unsupported column type %q", columnType)}
	}
}

func parseConnectBoards(settingsStr string) ColumnSettings {
	var raw struct {
		BoardIDs []json.RawMessage `json:"boardIds"`
	}
	if err := json.Unmarshal([]byte(settingsStr), &raw); err != nil {
		return UnparseableSettings{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if len(raw.BoardIDs) == 0 {
		return UnparseableSettings{Reason: "no boardIds present"}
	}

	ids := make([]string, 0, len(raw.BoardIDs))
	for _, msg := range raw.BoardIDs {
		id, err := decodeBoardID(msg)
		if err != nil {
			return UnparseableSettings{Reason: fmt.Sprintf("bad board id: %v", err)}
		}
		ids = append(ids, id)
	}

	return ConnectBoardsSettings{BoardIDs: ids}
}

func parseMirror(settingsStr string) ColumnSettings {
	var raw struct {
		LinkedBoardID  json.RawMessage `json:"linkedBoardId"`
		MirrorColumnID string          `json:"mirrorColumnId"`
	}
	if err := json.Unmarshal([]byte(settingsStr), &raw); err != nil {
		return UnparseableSettings{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if len(raw.LinkedBoardID) == 0 {
		return UnparseableSettings{Reason: "no linkedBoardId present"}
	}

	id, err := decodeBoardID(raw.LinkedBoardID)
	if err != nil {
		return UnparseableSettings{Reason: fmt.Sprintf("bad board id: %v", err)}
	}

	return MirrorSettings{LinkedBoardID: id, MirrorColumnID: raw.MirrorColumnID}
}

// decodeBoardID accepts a board id encoded as either a JSON number or a
// JSON string and returns its canonical string form.
func decodeBoardID(msg json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("empty id")
		}
		return s, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(msg))
	decoder.UseNumber()
	var n json.Number
	if err := decoder.Decode(&n); err != nil {
		return "", fmt.Errorf("neither string nor number: %s", string(msg))
	}
	return n.String(), nil
}
