// Package variables implements the three-layer variable environment (spec
// §4.2): global < profile < extracted, with snapshot/restore and a
// scope-guard used by the loop and concurrent executors to isolate
// iteration-local state.
package variables

import (
	"maps"

	"github.com/alexisbeaulieu97/streamy/internal/config"
)

// Snapshot is a deep-enough copy of all three layers (map[string]any values
// are copied by reference one level deep, matching the layers' own
// copy-by-value-of-top-level-keys semantics used throughout this package).
type Snapshot struct {
	Global    map[string]any
	Profile   map[string]any
	Extracted map[string]any
}

// Manager owns the three variable layers for a single test-case run.
type Manager struct {
	global    map[string]any
	profile   map[string]any
	extracted map[string]any
}

// New builds a Manager from a GlobalConfig, injecting the `config` key
// (spec §4.2) so templates may reference {{config.profiles.prod.base_url}},
// and layering in the named profile's variables (if any).
func New(cfg config.GlobalConfig, profileName string) *Manager {
	m := &Manager{
		global:    make(map[string]any),
		profile:   make(map[string]any),
		extracted: make(map[string]any),
	}

	maps.Copy(m.global, cfg.Variables)
	m.global["config"] = configToMap(cfg)

	if profileName != "" {
		if p, ok := cfg.Profiles[profileName]; ok {
			maps.Copy(m.profile, p.Variables)
		}
	}

	return m
}

func configToMap(cfg config.GlobalConfig) map[string]any {
	profiles := make(map[string]any, len(cfg.Profiles))
	for name, p := range cfg.Profiles {
		profiles[name] = map[string]any{
			"base_url":   p.BaseURL,
			"variables":  p.Variables,
			"timeout":    p.Timeout,
			"verify_ssl": p.VerifySSL,
		}
	}
	return map[string]any{
		"profiles":           profiles,
		"active_profile":     cfg.ActiveProfile,
		"timeout":            cfg.Timeout,
		"retry_times":        cfg.RetryTimes,
		"concurrent_threads": cfg.ConcurrentThreads,
	}
}

// Get looks up name with priority extracted > profile > global.
func (m *Manager) Get(name string) (any, bool) {
	if v, ok := m.extracted[name]; ok {
		return v, true
	}
	if v, ok := m.profile[name]; ok {
		return v, true
	}
	if v, ok := m.global[name]; ok {
		return v, true
	}
	return nil, false
}

// Set writes name to the extracted layer.
func (m *Manager) Set(name string, value any) {
	m.extracted[name] = value
}

// SetAll writes every entry of values to the extracted layer.
func (m *Manager) SetAll(values map[string]any) {
	for k, v := range values {
		m.extracted[k] = v
	}
}

// All returns a merged copy with priority applied (extracted wins).
func (m *Manager) All() map[string]any {
	out := make(map[string]any, len(m.global)+len(m.profile)+len(m.extracted))
	maps.Copy(out, m.global)
	maps.Copy(out, m.profile)
	maps.Copy(out, m.extracted)
	return out
}

// Snapshot returns a copy of all three layers.
func (m *Manager) Snapshot() Snapshot {
	return Snapshot{
		Global:    copyMap(m.global),
		Profile:   copyMap(m.profile),
		Extracted: copyMap(m.extracted),
	}
}

// Restore replaces all three layers with those recorded in snap.
func (m *Manager) Restore(snap Snapshot) {
	m.global = copyMap(snap.Global)
	m.profile = copyMap(snap.Profile)
	m.extracted = copyMap(snap.Extracted)
}

// Clone returns an independent Manager holding copies of all three current
// layers, used by the concurrent executor so branches do
// not race on the shared extracted map (spec §4.7.5, §5).
func (m *Manager) Clone() *Manager {
	return &Manager{
		global:    copyMap(m.global),
		profile:   copyMap(m.profile),
		extracted: copyMap(m.extracted),
	}
}

// MergeExtracted copies other's extracted layer into m, later calls winning
// on key clash — used to fold concurrent-branch results back in declaration
// order (spec §4.7.5).
func (m *Manager) MergeExtracted(other *Manager) {
	maps.Copy(m.extracted, other.extracted)
}

// Guard snapshots the current state and returns a restore function; callers
// defer the returned function to revert on scope exit (spec §4.2's
// scope-guard, used by the loop executor to isolate iteration-local
// variables).
func (m *Manager) Guard() func() {
	snap := m.Snapshot()
	return func() {
		m.Restore(snap)
	}
}

func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return make(map[string]any)
	}
	out := make(map[string]any, len(in))
	maps.Copy(out, in)
	return out
}
