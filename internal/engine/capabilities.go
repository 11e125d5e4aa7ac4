package engine

import (
	"sort"
	"strings"
)

// Engine names.
const (
	NameDartSass = "dart-sass"
	NameLibSass  = "libsass"
	NameNodeSass = "node-sass"
)

// Capabilities are the static properties of an engine.
type Capabilities struct {
	// CooperativeScheduling means the engine accepts a fiber handle and
	// runs its work through it.
	CooperativeScheduling bool

	// SyncImporterReturn means importers must answer synchronously with
	// a path or a body.
	SyncImporterReturn bool

	// ContentImporters means importers hand back contents addressed by a
	// canonical URL.
	ContentImporters bool
}

// capabilityTable is read-only after package initialization.
var capabilityTable = map[string]Capabilities{
	NameDartSass: {CooperativeScheduling: true, ContentImporters: true},
	NameLibSass:  {SyncImporterReturn: true},
	NameNodeSass: {SyncImporterReturn: true},
}

// CapabilitiesOf looks up the capabilities of the named engine. Unknown
// names have none.
func CapabilitiesOf(name string) Capabilities {
	return capabilityTable[strings.ToLower(name)]
}

// Known returns the names in the capability table, sorted.
func Known() []string {
	names := make([]string, 0, len(capabilityTable))
	for n := range capabilityTable {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Flags returns the capability names that are set, for display.
func (c Capabilities) Flags() []string {
	var out []string
	if c.CooperativeScheduling {
		out = append(out, "cooperative-scheduling")
	}
	if c.SyncImporterReturn {
		out = append(out, "sync-importer-return")
	}
	if c.ContentImporters {
		out = append(out, "content-importers")
	}
	return out
}
