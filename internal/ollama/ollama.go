// Package ollama probes a local Ollama daemon for reachability and the
// set of pulled models.
package ollama

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultEndpoint is where a stock Ollama install listens.
const DefaultEndpoint = "http://127.0.0.1:11434"

// Status reports whether a local Ollama daemon answers and which models
// it has pulled.
type Status struct {
	Endpoint  string   `json:"endpoint"`
	Reachable bool     `json:"reachable"`
	Models    []string `json:"models"`
	Error     string   `json:"error,omitempty"`
}

// Check queries the daemon's tag list. Connection errors and non-2xx
// responses are reported in the status, not returned.
func Check() Status {
	return check(DefaultEndpoint, &http.Client{Timeout: 3 * time.Second})
}

func check(endpoint string, client *http.Client) Status {
	status := Status{Endpoint: endpoint, Models: []string{}}

	resp, err := client.Get(endpoint + "/api/tags")
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return status
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.Reachable = true
	for _, model := range gjson.GetBytes(body, "models.#.name").Array() {
		if name := model.String(); name != "" {
			status.Models = append(status.Models, name)
		}
	}
	return status
}
