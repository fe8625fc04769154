package schema

// Args is a validated argument object. Values follow the JSON data model:
// strings, float64 numbers, booleans, []any and map[string]any.
type Args map[string]any

// Has reports whether name is present after validation (supplied or
// defaulted).
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

func (a Args) Number(name string) float64 {
	n, _ := a[name].(float64)
	return n
}

// Int truncates a number argument to an int.
func (a Args) Int(name string) int {
	return int(a.Number(name))
}

// Slice returns an array argument, or nil.
func (a Args) Slice(name string) []any {
	s, _ := a[name].([]any)
	return s
}

// Strings returns the string elements of an array argument.
func (a Args) Strings(name string) []string {
	items := a.Slice(name)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

