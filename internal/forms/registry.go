package forms

import "sync"

// Registry is the in-memory cache of published form definitions. It is
// read-only during respondent sessions; the builder/save flow replaces
// entries and respondents pick up the new definition on their next fetch.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]*Form
}

func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]*Form)}
}

// Get returns the form with the given id, or nil.
func (r *Registry) Get(id string) *Form {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.forms[id]
}

// All returns all registered forms.
func (r *Registry) All() []*Form {
	r.mu.RLock()
	defer r.mu.RUnlock()
	forms := make([]*Form, 0, len(r.forms))
	for _, f := range r.forms {
		forms = append(forms, f)
	}
	return forms
}

// Open returns all forms currently accepting submissions.
func (r *Registry) Open() []*Form {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var forms []*Form
	for _, f := range r.forms {
		if f.AllowSubmissions {
			forms = append(forms, f)
		}
	}
	return forms
}

// Load replaces all forms in the registry. Called during startup and
// after builder mutations.
func (r *Registry) Load(forms []*Form) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms = make(map[string]*Form, len(forms))
	for _, f := range forms {
		r.forms[f.ID] = f
	}
}

// Put inserts or replaces a single form.
func (r *Registry) Put(f *Form) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms[f.ID] = f
}

// Remove deletes a form from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.forms, id)
}
