package contentful

import (
	"fmt"
	"net/url"
)

// DefaultWebAppURL is the Contentful web app, used for links printed to users.
const DefaultWebAppURL = "https://app.contentful.com"

// SpaceWebURL returns the web app URL of an environment's home page.
func SpaceWebURL(spaceID, environmentID string) string {
	return fmt.Sprintf("%s/spaces/%s/environments/%s", DefaultWebAppURL,
		url.PathEscape(spaceID), url.PathEscape(environmentID))
}

// EntryWebURL returns the web app URL of an entry.
func EntryWebURL(spaceID, environmentID, entryID string) string {
	return SpaceWebURL(spaceID, environmentID) + "/entries/" + url.PathEscape(entryID)
}

// EntryWebURL returns the web app URL of an entry in this environment.
func (e *Environment) EntryWebURL(entryID string) string {
	return EntryWebURL(e.SpaceID, e.EnvironmentID, entryID)
}
