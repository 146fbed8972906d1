package health

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// VersionInfo is served on /version.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// LivenessHandler serves the liveness probe.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, c.CheckLiveness(r.Context()))
	}
}

// ReadinessHandler serves the readiness probe: 200 when every check
// passes, 503 otherwise.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := c.CheckReadiness(r.Context())
		code := http.StatusOK
		if !status.Ready() {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	}
}

// VersionHandler serves build information.
func VersionHandler(version, commit, buildTime string) http.HandlerFunc {
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, info)
	}
}

// Register mounts /health, /ready and /version on mux.
func Register(mux *http.ServeMux, c *Checker, version, commit, buildTime string) {
	mux.Handle("GET /health", c.LivenessHandler())
	mux.Handle("GET /ready", c.ReadinessHandler())
	mux.Handle("GET /version", VersionHandler(version, commit, buildTime))
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(v)
	}
}
