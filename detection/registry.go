package detection

// LabelRegistry interns label strings into class ids. Ids are handed out in
// first-seen order starting at 0 and are never reassigned.
//
// A registry has a single writer, the Parser that owns it.
type LabelRegistry struct {
	ids    map[string]int
	labels []string
}

// NewLabelRegistry returns an empty registry.
func NewLabelRegistry() *LabelRegistry {
	return &LabelRegistry{ids: make(map[string]int)}
}

// Intern returns the id for label, assigning the next free id on first sight.
func (r *LabelRegistry) Intern(label string) int {
	if id, ok := r.ids[label]; ok {
		return id
	}
	id := len(r.labels)
	r.ids[label] = id
	r.labels = append(r.labels, label)
	return id
}

// Lookup returns the id for label without assigning one.
func (r *LabelRegistry) Lookup(label string) (int, bool) {
	id, ok := r.ids[label]
	return id, ok
}

// Labels returns the known labels indexed by class id.
func (r *LabelRegistry) Labels() []string {
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// Len returns the number of distinct labels seen.
func (r *LabelRegistry) Len() int {
	return len(r.labels)
}
