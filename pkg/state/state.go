// Package state implements the condition interpreter's shared, mutable
// evaluation context (§4.E): game/path identity fixed at construction, a
// set of caller-supplied override maps that are replaced wholesale, and
// two independently-locked caches (predicate results, CRC32 sums) whose
// locks self-heal if a prior access panicked while holding them.
package state

import (
	"sync"

	"github.com/iancoleman/orderedmap"
	"github.com/loot/condition-interpreter/pkg/cerrors"
	"github.com/loot/condition-interpreter/pkg/gamecode"
	"github.com/loot/condition-interpreter/pkg/pathresolve"
	"github.com/loot/condition-interpreter/pkg/plugin"
	"github.com/loot/condition-interpreter/pkg/version"
)

// State is the evaluation context a parsed expression is run against.
// Safe for concurrent use: multiple goroutines may call eval against one
// State simultaneously, and may concurrently call the mutators below.
type State struct {
	game     gamecode.Code
	dataPath string
	reader   plugin.Reader

	overridesMu         sync.RWMutex
	additionalDataPaths []string
	activePlugins       map[string]struct{}
	pluginVersions      *orderedmap.OrderedMap // lowercase name -> version.Version

	crc poisonableCache

	cond poisonableCache
}

// New constructs a State for the given game and data path. dataPath is
// never mutated after construction (§3's State invariants); the
// loot_path argument the C ABI accepts (§6.2, state_create) is not part of
// this constructor: state_create accepts it and ignores it.
func New(game gamecode.Code, dataPath string) (*State, error) {
	if !game.Valid() {
		return nil, &cerrors.InvalidGameCode{Value: int(game)}
	}
	return &State{
		game:           game,
		dataPath:       dataPath,
		reader:         plugin.DefaultReader{},
		activePlugins:  make(map[string]struct{}),
		pluginVersions: orderedmap.New(),
		crc:            newPoisonableCache(),
		cond:           newPoisonableCache(),
	}, nil
}

// WithPluginReader overrides the plugin-record reader, for tests that want
// to substitute a fake implementation of §6.4's external capability.
func (s *State) WithPluginReader(r plugin.Reader) *State {
	s.reader = r
	return s
}

// Game returns the state's game code.
func (s *State) Game() gamecode.Code { return s.game }

// PluginReader returns the external plugin-record reader this state uses.
func (s *State) PluginReader() plugin.Reader { return s.reader }

// PathContext snapshots the current game/data-path identity for use with
// pkg/pathresolve. AdditionalDataPaths is copied so the caller can't
// observe a later SetAdditionalDataPaths mutating it out from under them.
func (s *State) PathContext() pathresolve.Context {
	s.overridesMu.RLock()
	defer s.overridesMu.RUnlock()
	paths := make([]string, len(s.additionalDataPaths))
	copy(paths, s.additionalDataPaths)
	return pathresolve.Context{Game: s.game, DataPath: s.dataPath, AdditionalDataPaths: paths}
}

// SetAdditionalDataPaths replaces the additional-data-paths list wholesale.
// A nil or empty slice clears it.
func (s *State) SetAdditionalDataPaths(paths []string) {
	s.overridesMu.Lock()
	defer s.overridesMu.Unlock()
	if len(paths) == 0 {
		s.additionalDataPaths = nil
		return
	}
	cp := make([]string, len(paths))
	copy(cp, paths)
	s.additionalDataPaths = cp
}

// SetActivePlugins replaces the active-plugin set wholesale with the given
// filenames, lowercased. A nil or empty slice clears it (§4.E: "means
// caller asserts nothing active").
func (s *State) SetActivePlugins(names []string) {
	s.overridesMu.Lock()
	defer s.overridesMu.Unlock()
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[toLower(n)] = struct{}{}
	}
	s.activePlugins = set
}

// IsActive reports whether name (case-insensitively) is in the active set.
func (s *State) IsActive(name string) bool {
	s.overridesMu.RLock()
	defer s.overridesMu.RUnlock()
	_, ok := s.activePlugins[toLower(name)]
	return ok
}

// ActiveNames returns a snapshot of the active-plugin set's lowercase
// filenames, for predicates (active(regex), many_active(regex)) that need
// to range over every active plugin.
func (s *State) ActiveNames() []string {
	s.overridesMu.RLock()
	defer s.overridesMu.RUnlock()
	names := make([]string, 0, len(s.activePlugins))
	for n := range s.activePlugins {
		names = append(names, n)
	}
	return names
}

// PluginVersionEntry is one plugin-name/version pair supplied to
// SetPluginVersions, in the order the caller listed it. A later duplicate
// name overrides an earlier one, same as repeating a map key.
type PluginVersionEntry struct {
	Name    string
	Version string
}

// SetPluginVersions replaces the plugin_versions override map wholesale. A
// nil or empty slice clears it. entries is consumed in order, which is the
// entire reason this is backed by an orderedmap.OrderedMap rather than a
// plain map: a caller handing in the same override set through two
// different paths (CLI flags, the FFI's plugin_version array) still sees
// the same iteration order out the other end, e.g. from a future "dump
// current overrides" diagnostic.
func (s *State) SetPluginVersions(entries []PluginVersionEntry) {
	s.overridesMu.Lock()
	defer s.overridesMu.Unlock()
	s.pluginVersions = orderedmap.New()
	for _, e := range entries {
		s.pluginVersions.Set(toLower(e.Name), version.Parse(e.Version))
	}
}

// PluginVersionOverride returns the caller-supplied version override for
// name, if any.
func (s *State) PluginVersionOverride(name string) (version.Version, bool) {
	s.overridesMu.RLock()
	defer s.overridesMu.RUnlock()
	raw, ok := s.pluginVersions.Get(toLower(name))
	if !ok {
		return version.Version{}, false
	}
	v, ok := raw.(version.Version)
	return v, ok
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
