// Package sandbox detects whether the process runs inside an application
// sandbox and rewrites commands so they escape it to the host.
package sandbox

// FlatpakIDVar is set by Flatpak inside every app container.
const FlatpakIDVar = "FLATPAK_ID"

// DefaultBridgePrefix is the launcher used to reach the host from a Flatpak
// sandbox.
var DefaultBridgePrefix = []string{"flatpak-spawn", "--host"}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Detection names the environment variable that marks a sandbox and the
// values of it that still mean "not sandboxed".
type Detection struct {
	Var         string   `yaml:"env_var"`
	FalseValues []string `yaml:"false_values,omitempty"`
}

// DefaultDetection looks for FLATPAK_ID with no false values, so any value
// (including empty) counts as sandboxed.
func DefaultDetection() Detection {
	return Detection{Var: FlatpakIDVar}
}

// HostBridge rewrites a command vector so it runs on the host.
type HostBridge interface {
	// Wrap returns the command to execute. The input slice is never
	// modified.
	Wrap(command []string) []string

	// Bridged reports whether Wrap changes commands at all.
	Bridged() bool
}
