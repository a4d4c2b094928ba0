package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/closure"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/contentful"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/export"
)

// FatalError writes an error message to stderr and exits with code 1.
// Use this for fatal errors that prevent the command from completing.
func FatalError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// FatalErrorWithHint writes an error message with a hint to stderr and exits.
// Use this when you can provide an actionable suggestion to fix the error.
//
// Example:
//
//	FatalErrorWithHint("no spaces configured", "Add a spaces: list to config.yaml")
func FatalErrorWithHint(message, hint string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	os.Exit(1)
}

// WarnError writes a warning message to stderr and returns.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// exitWithError reports err in the active output mode and exits.
func exitWithError(err error) {
	code, hint := classifyError(err)
	if jsonOutput {
		outputJSONError(err, code)
	}
	if hint != "" {
		FatalErrorWithHint(err.Error(), hint)
	}
	FatalError("%v", err)
}

// classifyError maps err to a stable JSON error code and an optional hint.
func classifyError(err error) (code, hint string) {
	var lookupErr *closure.LookupError
	switch {
	case errors.Is(err, contentful.ErrUnauthorized):
		return "unauthorized", "Check the management token for this space, or set CFU_MANAGEMENT_TOKEN"
	case errors.Is(err, contentful.ErrSpaceNotFound):
		return "space_not_found", "Check --space and the space-id in config.yaml (cfu spaces lists them)"
	case errors.Is(err, contentful.ErrEnvironmentNotFound):
		return "environment_not_found", "Check --environment (cfu environments lists the environments and aliases)"
	case errors.As(err, &lookupErr) && errors.Is(err, contentful.ErrNotFound):
		return "not_found", fmt.Sprintf("%q is neither an entry nor an asset in environment %q", lookupErr.ID, currentEnvironmentID())
	case errors.As(err, &lookupErr):
		return "lookup_failed", ""
	case errors.Is(err, contentful.ErrNotFound):
		return "not_found", "Check the space and environment ids (cfu environments lists them)"
	case errors.Is(err, export.ErrMalformedRootFile):
		return "invalid_input", `The root file must look like ["entryId1", "entryId2"]`
	case errors.Is(err, closure.ErrNoRoots), errors.Is(err, closure.ErrEmptyIdentifier), errors.Is(err, errNoRoots):
		return "invalid_input", "Pass entry ids as arguments or use --file"
	}
	return "", ""
}
