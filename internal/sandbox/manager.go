package sandbox

// NewHostBridge picks the bridge for a process whose sandbox state was
// detected at startup. An empty prefix falls back to DefaultBridgePrefix.
func NewHostBridge(sandboxed bool, prefix []string) HostBridge {
	if !sandboxed {
		return &NoopBridge{}
	}
	if len(prefix) == 0 {
		return NewFlatpakBridge()
	}
	return &PrefixBridge{Prefix: append([]string(nil), prefix...)}
}

// NewNoopHostBridge always returns a pass-through bridge (for testing or
// when bridging is disabled).
func NewNoopHostBridge() HostBridge {
	return &NoopBridge{}
}
