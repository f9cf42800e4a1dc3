package sandbox

// NoopBridge passes commands through unchanged.
// Used when the process is not sandboxed.
type NoopBridge struct{}

// Wrap returns a copy of command.
func (n *NoopBridge) Wrap(command []string) []string {
	return append([]string(nil), command...)
}

// Bridged always returns false.
func (n *NoopBridge) Bridged() bool {
	return false
}
