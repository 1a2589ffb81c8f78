package notification

// entry is a named value inside an orderedList.
type entry[T any] struct {
	name  string
	value T
}

// orderedList keeps named entries in insertion order with unique names.
// index maps a name to its position and is rebuilt on every structural change.
type orderedList[T any] struct {
	entries []entry[T]
	index   map[string]int
}

func (l *orderedList[T]) len() int {
	return len(l.entries)
}

func (l *orderedList[T]) position(name string) int {
	if i, ok := l.index[name]; ok {
		return i
	}
	return -1
}

func (l *orderedList[T]) get(name string) (T, bool) {
	if i := l.position(name); i >= 0 {
		return l.entries[i].value, true
	}
	var zero T
	return zero, false
}

func (l *orderedList[T]) names() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.name
	}
	return out
}

func (l *orderedList[T]) values() []T {
	out := make([]T, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.value
	}
	return out
}

// set replaces an existing entry in place or appends a new one.
func (l *orderedList[T]) set(name string, value T) {
	if i := l.position(name); i >= 0 {
		l.entries[i].value = value
		return
	}
	l.entries = append(l.entries, entry[T]{name: name, value: value})
	l.reindex()
}

// place removes any entry called name and re-inserts it next to the anchor
// described by p. A missing anchor means append.
func (l *orderedList[T]) place(name string, value T, p Placement) {
	if p.isZero() {
		l.set(name, value)
		return
	}

	l.remove(name)

	at := len(l.entries)
	switch {
	case p.Below != "":
		if i := l.position(p.Below); i >= 0 {
			at = i + 1
		}
	case p.Above != "":
		if i := l.position(p.Above); i >= 0 {
			at = i
		}
	}
	l.insertAt(at, name, value)
}

func (l *orderedList[T]) insertAt(at int, name string, value T) {
	l.entries = append(l.entries, entry[T]{})
	copy(l.entries[at+1:], l.entries[at:])
	l.entries[at] = entry[T]{name: name, value: value}
	l.reindex()
}

func (l *orderedList[T]) remove(name string) bool {
	i := l.position(name)
	if i < 0 {
		return false
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.reindex()
	return true
}

func (l *orderedList[T]) reindex() {
	l.index = make(map[string]int, len(l.entries))
	for i, e := range l.entries {
		l.index[e.name] = i
	}
}
