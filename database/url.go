package database

import (
	"net/url"
	"strings"
)

// BuildDatabaseURL joins a base postgres URL with a database name and
// disables SSL unless the base URL already picks a mode. An empty database
// name leaves the path in the base URL alone, so a fully formed
// DATABASE_URL keeps working without DATABASE_NAME.
func BuildDatabaseURL(baseURL, databaseName string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}

	if databaseName != "" {
		parsed.Path = "/" + databaseName
	} else {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
	}

	query := parsed.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
