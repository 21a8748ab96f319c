package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds node names in model files.
const maxNameLength = 128

// nodeNameRegex matches identifiers usable as node names and DOT node IDs.
var nodeNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateNodeName validates a node name from a model file.
//
// Names are used as lookup keys when wiring predecessors and as Graphviz
// node identifiers, so the rules are conservative:
//   - No empty names
//   - No control characters
//   - Must start with a letter or underscore
//   - Only letters, digits, '_', '.', '-'
//   - Maximum length of 128 characters
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "node name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "node name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "node name contains invalid control characters")
		}
	}

	if !nodeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid node name: %q", name)
	}

	return nil
}

// ValidateModelPath validates a model file path given on the command line.
// It checks the extension and rejects null bytes; it does not touch the
// filesystem.
func ValidateModelPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "model path cannot be empty")
	}

	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidInput, "model path contains invalid characters")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".yaml", ".yml":
		return nil
	default:
		return New(ErrCodeInvalidFormat, "unsupported model file extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
}
