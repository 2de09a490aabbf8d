package scan

import (
	"strings"
	"sync"

	"github.com/amdadul/brandstore-crm/internal/model"
)

// Accumulator collects distinct scanned codes in scan order and keeps the
// comma-joined serial field in sync with them.
type Accumulator struct {
	// OnDuplicate is called once for every rejected duplicate code.
	OnDuplicate func(code string)

	mu    sync.Mutex
	codes []string
	seen  map[string]struct{}
	field string
}

func New(onDuplicate func(code string)) *Accumulator {
	return &Accumulator{OnDuplicate: onDuplicate, seen: make(map[string]struct{})}
}

// Add appends code if it has not been seen. Blank codes are ignored.
func (a *Accumulator) Add(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}

	a.mu.Lock()
	if a.seen == nil {
		a.seen = make(map[string]struct{})
	}
	if _, dup := a.seen[code]; dup {
		notify := a.OnDuplicate
		a.mu.Unlock()
		if notify != nil {
			notify(code)
		}
		return false
	}
	a.seen[code] = struct{}{}
	a.codes = append(a.codes, code)
	a.field = model.JoinSerials(a.codes)
	a.mu.Unlock()
	return true
}

// Field returns the serial field text.
func (a *Accumulator) Field() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.field
}

// SetField replaces the set with the codes in a manually edited field.
// Later duplicates in the text are collapsed.
func (a *Accumulator) SetField(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.codes = a.codes[:0]
	a.seen = make(map[string]struct{})
	for _, code := range model.SplitSerials(text) {
		if _, dup := a.seen[code]; dup {
			continue
		}
		a.seen[code] = struct{}{}
		a.codes = append(a.codes, code)
	}
	a.field = model.JoinSerials(a.codes)
}

// Codes returns the accepted codes in scan order.
func (a *Accumulator) Codes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.codes))
	copy(out, a.codes)
	return out
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.codes)
}

// Reset clears the set, typically after a successful submit.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.codes = nil
	a.seen = make(map[string]struct{})
	a.field = ""
}
