package report

// Lookup resolves a name to its current value. found is false when the name is
// not defined at all; a defined but absent value is (Null{}, true).
type Lookup func(name string) (v Value, found bool)

// MapLookup resolves names from m.
func MapLookup(m map[string]Value) Lookup {
	return func(name string) (Value, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Collect writes a leaf for every name lookup knows. Unknown names are noted
// in a comment and skipped.
func (e *Emitter) Collect(names []string, lookup Lookup) error {
	for _, name := range names {
		v, ok := lookup(name)
		if !ok {
			if err := e.Comment(name + " is undefined"); err != nil {
				return err
			}
			continue
		}
		if err := e.Leaf(name, v); err != nil {
			return err
		}
	}
	return nil
}
