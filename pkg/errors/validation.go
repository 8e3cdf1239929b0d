package errors

import (
	"strings"
	"unicode"
)

// maxLabelLength bounds a panel label accepted from user input.
const maxLabelLength = 512

// ValidateLabel validates a panel entry label supplied by a user.
//
// Labels end up inside the comma-separated order string, so the rules are:
//   - No empty labels
//   - No commas
//   - No control characters
//   - Maximum length of 512 bytes
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return New(ErrCodeInvalidLabel, "label cannot be empty")
	}

	if len(label) > maxLabelLength {
		return New(ErrCodeInvalidLabel, "label too long (max %d characters)", maxLabelLength)
	}

	if strings.Contains(label, ",") {
		return New(ErrCodeInvalidLabel, "label cannot contain a comma: %q", label)
	}

	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLabel, "label contains invalid control characters")
		}
	}

	return nil
}

// ValidateOrderMode validates a panel order mode.
func ValidateOrderMode(mode string) error {
	switch mode {
	case "auto", "custom":
		return nil
	case "":
		return New(ErrCodeInvalidOrderMode, "order mode cannot be empty")
	default:
		return New(ErrCodeInvalidOrderMode, "invalid order mode %q (want auto or custom)", mode)
	}
}

// ValidateFormat validates a render output format.
func ValidateFormat(format string) error {
	switch format {
	case "dot", "svg":
		return nil
	default:
		return New(ErrCodeInvalidFormat, "unsupported format %q (want dot or svg)", format)
	}
}

// ValidateWorkflowPath validates a workflow file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Must end in .json
func ValidateWorkflowPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "workflow path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		return New(ErrCodeInvalidPath, "workflow must be a .json file: %s", path)
	}

	return nil
}
