package sandbox

// PrefixBridge escapes the sandbox by prepending a fixed launcher, e.g.
// "flatpak-spawn --host". The prefix is concatenated literally: arguments
// are not re-quoted and commands that already start with the prefix are
// wrapped again.
type PrefixBridge struct {
	Prefix []string
}

// NewFlatpakBridge returns a bridge using DefaultBridgePrefix.
func NewFlatpakBridge() *PrefixBridge {
	return &PrefixBridge{Prefix: append([]string(nil), DefaultBridgePrefix...)}
}

// Wrap returns Prefix followed by command.
func (p *PrefixBridge) Wrap(command []string) []string {
	cmd := make([]string, 0, len(p.Prefix)+len(command))
	cmd = append(cmd, p.Prefix...)
	return append(cmd, command...)
}

// Bridged reports whether the prefix is non-empty.
func (p *PrefixBridge) Bridged() bool {
	return len(p.Prefix) > 0
}
