// Package errors defines the structured error types used across pkgshape.
//
// Two kinds of errors exist: ConfigurationError for invalid or ambiguous
// configuration (carries remediation suggestions) and PackageError for I/O
// failures, malformed manifests, and failed external build steps (carries the
// package path and any captured tool output). Both propagate uncaught to the
// command boundary, which formats them for the terminal.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Suggestion is a remediation hint attached to a configuration error.
type Suggestion struct {
	Title       string
	Description string
	Command     string
}

// ConfigurationError reports invalid or ambiguous configuration, a missing
// source tree, or a configuration with no enabled output format.
type ConfigurationError struct {
	Message     string
	Violations  []string
	Suggestions []Suggestion
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if len(e.Violations) == 0 {
		return e.Message
	}

	return e.Message + ": " + strings.Join(e.Violations, "; ")
}

// WithSuggestion appends a remediation suggestion.
func (e *ConfigurationError) WithSuggestion(title, description, command string) *ConfigurationError {
	e.Suggestions = append(e.Suggestions, Suggestion{
		Title:       title,
		Description: description,
		Command:     command,
	})

	return e
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string, violations ...string) *ConfigurationError {
	return &ConfigurationError{
		Message:    message,
		Violations: violations,
	}
}

// PackageError reports a failure while processing one package: an I/O error,
// a malformed manifest, or a failed external build step.
type PackageError struct {
	Message string
	Path    string // package directory, empty when not tied to one
	Output  string // captured external-tool output, empty otherwise
	Cause   error
}

// Error implements the error interface.
func (e *PackageError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *PackageError) Unwrap() error {
	return e.Cause
}

// WithOutput attaches captured external-tool output.
func (e *PackageError) WithOutput(output string) *PackageError {
	e.Output = output

	return e
}

// NewPackageError creates a package error.
func NewPackageError(path, message string, cause error) *PackageError {
	return &PackageError{
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError

	return errors.As(err, &ce)
}

// IsPackage reports whether err is (or wraps) a PackageError.
func IsPackage(err error) bool {
	var pe *PackageError

	return errors.As(err, &pe)
}

// Format renders an error as a human-readable terminal diagnostic. Fatal
// errors include full detail (violations, captured tool output, remediation
// suggestions); with verbose false the tool output of a PackageError is still
// shown because build failures are useless without it.
func Format(err error) string {
	var b strings.Builder

	var ce *ConfigurationError
	if errors.As(err, &ce) {
		fmt.Fprintf(&b, "Configuration error: %s\n", ce.Message)
		for _, v := range ce.Violations {
			fmt.Fprintf(&b, "  - %s\n", v)
		}
		for _, s := range ce.Suggestions {
			fmt.Fprintf(&b, "\n%s\n", s.Title)
			if s.Description != "" {
				fmt.Fprintf(&b, "  %s\n", s.Description)
			}
			if s.Command != "" {
				fmt.Fprintf(&b, "  $ %s\n", s.Command)
			}
		}

		return b.String()
	}

	var pe *PackageError
	if errors.As(err, &pe) {
		fmt.Fprintf(&b, "Error: %s\n", pe.Error())
		if pe.Output != "" {
			b.WriteString("\n")
			b.WriteString(strings.TrimRight(pe.Output, "\n"))
			b.WriteString("\n")
		}

		return b.String()
	}

	return "Error: " + err.Error() + "\n"
}
