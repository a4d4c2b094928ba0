package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/config"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/contentful"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/export"
)

var errNoRoots = errors.New("no root entry ids given")

// currentSpace resolves --space against config.yaml and requires a
// management token.
func currentSpace() (*config.Space, error) {
	space, err := config.SelectSpace(spaceFlag)
	if err != nil {
		return nil, err
	}
	if space.ManagementToken == "" {
		return nil, fmt.Errorf("space %q has no management token: %w", space.Name, contentful.ErrUnauthorized)
	}
	return space, nil
}

// currentEnvironmentID is the --environment flag, falling back to config.
func currentEnvironmentID() string {
	if environmentFlag != "" {
		return environmentFlag
	}
	return config.GetString("environment")
}

// newClient builds a Content Management API client from config.
func newClient(space *config.Space) *contentful.Client {
	client := contentful.NewClient(space.ManagementToken).
		WithRetryMaxElapsed(config.GetDuration("retry.max-elapsed"))
	if apiURL := config.GetString("api-url"); apiURL != "" {
		client = client.WithBaseURL(apiURL)
	}
	if timeout := config.GetDuration("http-timeout"); timeout > 0 {
		client = client.WithHTTPClient(&http.Client{Timeout: timeout})
	}
	return client
}

// openEnvironment returns the selected space and a handle to the selected
// environment in it.
func openEnvironment() (*config.Space, *contentful.Environment, error) {
	space, err := currentSpace()
	if err != nil {
		return nil, nil, err
	}
	return space, newClient(space).Environment(space.SpaceID, currentEnvironmentID()), nil
}

// readRoots takes root ids from the arguments, or from a JSON file when file
// is set.
func readRoots(args []string, file string) ([]string, error) {
	if file != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass entry ids either as arguments or with --file, not both")
		}
		return export.ReadRootIDs(file)
	}
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		// Accept "a,b" as well as "a b".
		for _, id := range strings.Split(arg, ",") {
			if id = strings.TrimSpace(id); id != "" {
				roots = append(roots, id)
			}
		}
	}
	if len(roots) == 0 {
		return nil, errNoRoots
	}
	return roots, nil
}
