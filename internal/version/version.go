package version

import (
	"encoding/json"
	"log"
	"os"
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
}

// Load reads build info from version.json next to the binary. A missing or
// unreadable file is not fatal; the server just reports 0.0.0.
func Load() Info {
	data, err := os.ReadFile("version.json")
	if err != nil {
		return Info{Version: "0.0.0"}
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("warning: could not parse version.json: %v", err)
		return Info{Version: "0.0.0"}
	}
	return info
}
