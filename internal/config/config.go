// Package config holds the configuration the core recognizes from the
// outer build system (spec §6 "Configuration the core recognizes"): the
// enabled feature set, the optimization flag, and target information
// (the target triple is passed through to LLVM). Everything else (dependency discovery, linker
// invocation, CLI, project scaffolding) is out of core scope per spec §1.
package config

// BuildConfig is handed to the signature collector (for feature gating)
// and the IR generator, which copies TargetTriple into the module. The IR
// generator does not read OptimizeDebugInfo or CPUFeatures: it emits no
// debug-info metadata and no CPU feature attributes.
type BuildConfig struct {
	// EnabledFeatures gates @feature-tagged function declarations
	// (spec §4.2 Key rules).
	EnabledFeatures map[string]bool

	// OptimizeDebugInfo records a request for line-tables-only (true) or
	// full (false) debug info (spec §4.4 Debug info). No debug info is
	// emitted either way.
	OptimizeDebugInfo bool

	TargetTriple string
	CPUFeatures  string
}

// NewBuildConfig builds a BuildConfig from a feature-name slice, matching
// the shape the outer build system's config.toml supplies (spec §6).
func NewBuildConfig(features []string, optimize bool, targetTriple, cpuFeatures string) *BuildConfig {
	set := make(map[string]bool, len(features))
	for _, f := range features {
		set[f] = true
	}
	return &BuildConfig{
		EnabledFeatures:   set,
		OptimizeDebugInfo: optimize,
		TargetTriple:      targetTriple,
		CPUFeatures:       cpuFeatures,
	}
}

// FeatureEnabled reports whether name is in the enabled-feature set.
func (c *BuildConfig) FeatureEnabled(name string) bool {
	if c == nil {
		return false
	}
	return c.EnabledFeatures[name]
}
