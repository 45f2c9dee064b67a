// Package validation provides pre-run checks on the map files named on the
// command line.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MinMaps is the smallest number of maps worth synchronizing.
const MinMaps = 2

// Error represents a validation failure with context.
type Error struct {
	// Field is the name of the argument or component that failed validation
	Field string
	// Message describes the validation failure
	Message string
	// Err is the underlying error (if any)
	Err error
}

// Error returns a formatted validation error message.
func (ve *Error) Error() string {
	if ve.Err != nil {
		return fmt.Sprintf("validation failed for %q: %s: %v", ve.Field, ve.Message, ve.Err)
	}
	return fmt.Sprintf("validation failed for %q: %s", ve.Field, ve.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (ve *Error) Unwrap() error {
	return ve.Err
}

// Errors collects multiple validation errors.
type Errors []error

// Error returns a formatted error message for all validation failures.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors:\n- %s", len(ve), errors.Join(ve...))
}

// Options configures validation behavior.
type Options struct {
	// RequireWritePermission checks that every map can be written back
	RequireWritePermission bool
}

// DefaultOptions returns the options used before a synchronization run.
func DefaultOptions() Options {
	return Options{RequireWritePermission: true}
}

// Result contains the outcome of a validation check.
type Result struct {
	// Valid indicates whether all validations passed
	Valid bool
	// Warnings contains non-fatal validation issues
	Warnings []string
	// Errors contains validation failures that prevent the operation
	Errors []error
}

// AddError adds an error to the validation result.
func (r *Result) AddError(err error) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the validation result.
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns the combined validation error message.
func (r *Result) Error() error {
	if !r.HasErrors() {
		return nil
	}
	if len(r.Errors) == 1 {
		return r.Errors[0]
	}
	return Errors(r.Errors)
}

// Summary returns a human-readable summary of the validation result.
func (r *Result) Summary() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "All validations passed"
	}
	var msg string
	if r.Valid {
		msg = "Validation passed with warnings"
	} else {
		msg = "Validation failed"
	}
	if len(r.Warnings) > 0 {
		msg += fmt.Sprintf(" (%d warning(s))", len(r.Warnings))
	}
	return msg
}

// ValidateMaps checks the map paths before any of them is parsed: each must
// be a distinct, readable regular file, and with RequireWritePermission its
// directory must accept the rewritten file.
func ValidateMaps(paths []string, opts Options) (*Result, error) {
	result := &Result{Valid: true}

	if len(paths) < MinMaps {
		result.AddError(&Error{
			Field:   "maps",
			Message: fmt.Sprintf("at least %d map files are required, got %d", MinMaps, len(paths)),
		})
		return result, result.Error()
	}

	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		abs, err := ValidatePath(path)
		if err != nil {
			result.AddError(err)
			continue
		}

		if first, dup := seen[abs]; dup {
			result.AddError(&Error{
				Field:   path,
				Message: fmt.Sprintf("same file as %s", first),
			})
			continue
		}
		seen[abs] = path

		if ext := strings.ToLower(filepath.Ext(abs)); ext != ".tmx" && ext != ".tsx" {
			result.AddWarning(fmt.Sprintf("%s does not have a .tmx or .tsx extension", path))
		}

		if opts.RequireWritePermission {
			if err := validateWritePermission(abs); err != nil {
				result.AddError(err)
			}
		}
	}

	return result, result.Error()
}

// ValidatePath checks that path names an existing regular file and returns
// its absolute form.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", &Error{
			Field:   "path",
			Message: "path cannot be empty",
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", &Error{
			Field:   path,
			Message: "cannot convert to absolute path",
			Err:     err,
		}
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &Error{
				Field:   path,
				Message: fmt.Sprintf("file does not exist: %s", absPath),
				Err:     err,
			}
		}
		return "", &Error{
			Field:   path,
			Message: fmt.Sprintf("cannot access file: %s", absPath),
			Err:     err,
		}
	}

	if !info.Mode().IsRegular() {
		return "", &Error{
			Field:   path,
			Message: fmt.Sprintf("not a regular file: %s", absPath),
		}
	}

	return absPath, nil
}

// validateWritePermission checks that the map's directory is writable, since
// the file is replaced in place on save.
func validateWritePermission(path string) error {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, ".tmxsync-write-test-*")
	if err != nil {
		return &Error{
			Field:   path,
			Message: fmt.Sprintf("directory is not writable: %s", dir),
			Err:     err,
		}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	return nil
}
