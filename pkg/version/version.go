// Package version carries build information for the bridged daemon.
package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version = "0.1.0"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the version payload exposed over the API.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build information.
func Get() Info {
	return Info{
		Name:    "bridged",
		Version: Version,
		Commit:  Commit,
		Date:    Date,
	}
}

// Banner returns the startup banner lines logged when the daemon boots.
func Banner() []string {
	info := Get()
	return []string{
		fmt.Sprintf("%s %s", info.Name, info.Version),
		fmt.Sprintf("commit: %s", info.Commit),
		fmt.Sprintf("built:  %s", info.Date),
	}
}
