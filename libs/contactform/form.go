package contactform

import (
	"strings"
	"sync"
)

const multiValueSeparator = ", "

// FieldNames lists the scalar contact form inputs in the order the form
// shows them. Goals are collected through the "Goals[]" checkbox group.
var FieldNames = []string{
	"Full Name / Company",
	"Email",
	"Phone",
	"Business Description",
	"Pages",
	"Features",
	"Design Preferences",
	"Budget",
	"Timeline",
	"Notes",
}

// multiValueKeys maps checkbox group names to the payload key they are
// collected under.
var multiValueKeys = map[string]string{
	"Goals[]": "Goals",
}

// Entry is a single name/value pair as the form reports it.
type Entry struct {
	Name  string
	Value string
}

// Form is the source of entries for a submission.
type Form interface {
	Entries() []Entry
	Reset()
}

// Values is an in-memory Form that keeps entries in insertion order.
type Values struct {
	mu      sync.Mutex
	entries []Entry
}

func NewValues(entries ...Entry) *Values {
	v := &Values{}
	v.entries = append(v.entries, entries...)
	return v
}

// Add appends an entry, keeping any existing entries with the same name.
func (v *Values) Add(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, Entry{Name: name, Value: value})
}

// Set replaces every entry named name with a single entry.
func (v *Values) Set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.entries[:0]
	for _, entry := range v.entries {
		if entry.Name != name {
			kept = append(kept, entry)
		}
	}
	v.entries = append(kept, Entry{Name: name, Value: value})
}

func (v *Values) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

func (v *Values) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = nil
}

func (v *Values) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// Payload holds collected values by key, in the order keys were first seen.
// A key holds either one value or, for checkbox groups, a list.
type Payload struct {
	keys   []string
	values map[string][]string
	lists  map[string]bool
}

// Collect builds a Payload from form entries. Checkbox group entries
// accumulate under their logical key; any other repeated name keeps the
// last value.
func Collect(entries []Entry) Payload {
	p := Payload{
		values: make(map[string][]string, len(entries)),
		lists:  make(map[string]bool),
	}
	for _, entry := range entries {
		if key, ok := multiValueKeys[entry.Name]; ok {
			p.add(key, entry.Value)
			continue
		}
		p.set(entry.Name, entry.Value)
	}
	return p
}

func (p *Payload) touch(key string) {
	if _, seen := p.values[key]; !seen {
		p.keys = append(p.keys, key)
	}
}

func (p *Payload) set(key, value string) {
	p.touch(key)
	p.values[key] = []string{value}
	p.lists[key] = false
}

func (p *Payload) add(key, value string) {
	p.touch(key)
	if !p.lists[key] {
		p.values[key] = nil
	}
	p.values[key] = append(p.values[key], value)
	p.lists[key] = true
}

// Keys returns payload keys in first-seen order.
func (p Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// List returns the raw values collected for key.
func (p Payload) List(key string) []string {
	values := p.values[key]
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// IsList reports whether key was collected as a checkbox group.
func (p Payload) IsList(key string) bool {
	return p.lists[key]
}

// Value returns the flattened value for key.
func (p Payload) Value(key string) (string, bool) {
	values, ok := p.values[key]
	if !ok {
		return "", false
	}
	return strings.Join(values, multiValueSeparator), true
}

// Flatten joins list values so every key maps to one string.
func (p Payload) Flatten() map[string]string {
	out := make(map[string]string, len(p.keys))
	for _, key := range p.keys {
		out[key], _ = p.Value(key)
	}
	return out
}
