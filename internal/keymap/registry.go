package keymap

import "sync"

// Registry is the process-wide collection of named keymaps (spec §3: "Named
// keymaps are owned by a global registry"). A Registry is safe for
// concurrent read access from signal-adjacent code, though in practice
// mutation only happens during inputrc parsing or `bind -m`, which run on
// the single cooperative editing thread (spec §5).
type Registry struct {
	mu   sync.Mutex
	maps map[string]*Keymap
}

// StandardNames enumerates the built-in keymaps spec §3 names.
var StandardNames = []string{
	"emacs", "emacs-standard", "emacs-meta", "emacs-ctlx",
	"vi", "vi-move", "vi-command", "vi-insert",
}

// NewRegistry builds a registry pre-populated with empty standard keymaps.
// "emacs-standard" is an alias for "emacs" and "vi-command" an alias for
// "vi-move", matching the aliasing bash's bind command documents.
func NewRegistry() *Registry {
	r := &Registry{maps: make(map[string]*Keymap)}
	emacs := New("emacs")
	vi := New("vi")
	r.maps["emacs"] = emacs
	r.maps["emacs-standard"] = emacs
	r.maps["emacs-meta"] = New("emacs-meta")
	r.maps["emacs-ctlx"] = New("emacs-ctlx")
	viMove := New("vi-move")
	r.maps["vi"] = vi
	r.maps["vi-move"] = viMove
	r.maps["vi-command"] = viMove
	r.maps["vi-insert"] = New("vi-insert")
	return r
}

// Get returns the named keymap, or nil if it does not exist.
func (r *Registry) Get(name string) *Keymap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maps[name]
}

// Define adds or replaces a user-defined named keymap (spec §3: "named user
// keymaps may be added/renamed thereafter").
func (r *Registry) Define(name string, k *Keymap) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k.Name = name
	r.maps[name] = k
}

// Rename renames an existing user-defined keymap.
func (r *Registry) Rename(oldName, newName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.maps[oldName]
	if !ok {
		return false
	}
	delete(r.maps, oldName)
	k.Name = newName
	r.maps[newName] = k
	return true
}

// Names returns the keymap names currently registered, in no particular
// order (used by `bind -l`/`bind -p`-style listings).
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.maps))
	for name := range r.maps {
		names = append(names, name)
	}
	return names
}
