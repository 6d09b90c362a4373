package manifest

import (
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
)

// Dependency map keys consumed from package.json.
const (
	KeyDependencies         = "dependencies"
	KeyDevDependencies      = "devDependencies"
	KeyPeerDependencies     = "peerDependencies"
	KeyOptionalDependencies = "optionalDependencies"
)

// DependencyMap is a package.json dependency section that remembers the
// order its keys appear in the document.
type DependencyMap struct {
	names  []string
	ranges map[string]string
}

// NewDependencyMap builds a map from alternating name/range pairs.
func NewDependencyMap(pairs ...string) DependencyMap {
	var d DependencyMap
	for i := 0; i+1 < len(pairs); i += 2 {
		d.set(pairs[i], pairs[i+1])
	}
	return d
}

// Names returns the package names in document order.
func (d DependencyMap) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Range returns the version range declared for name.
func (d DependencyMap) Range(name string) (string, bool) {
	r, ok := d.ranges[name]
	return r, ok
}

// Len returns the number of declared packages.
func (d DependencyMap) Len() int { return len(d.names) }

// A repeated key keeps its first position and its last value, as JSON.parse does.
func (d *DependencyMap) set(name, rng string) {
	if d.ranges == nil {
		d.ranges = make(map[string]string)
	}
	if _, dup := d.ranges[name]; !dup {
		d.names = append(d.names, name)
	}
	d.ranges[name] = rng
}

// UnmarshalEasyJSON decodes a JSON object, keeping key order.
// Non-string values are recorded with an empty range.
func (d *DependencyMap) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	*d = DependencyMap{}
	in.Delim('{')
	for !in.IsDelim('}') {
		name := in.String()
		in.WantColon()
		rng, _ := in.Interface().(string)
		d.set(name, rng)
		in.WantComma()
	}
	in.Delim('}')
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DependencyMap) UnmarshalJSON(data []byte) error {
	return easyjson.Unmarshal(data, d)
}

// Manifest is the subset of package.json this tool reads.
type Manifest struct {
	Name                 string
	Version              string
	Dependencies         DependencyMap
	DevDependencies      DependencyMap
	PeerDependencies     DependencyMap
	OptionalDependencies DependencyMap
}

// Section returns the dependency map stored under key.
// Unknown keys yield an empty map.
func (m *Manifest) Section(key string) DependencyMap {
	switch key {
	case KeyDependencies:
		return m.Dependencies
	case KeyDevDependencies:
		return m.DevDependencies
	case KeyPeerDependencies:
		return m.PeerDependencies
	case KeyOptionalDependencies:
		return m.OptionalDependencies
	}
	return DependencyMap{}
}

// Names returns the package names declared under key, in document order.
func (m *Manifest) Names(key string) []string {
	return m.Section(key).Names()
}

// UnmarshalEasyJSON decodes package.json, skipping fields it does not use.
func (m *Manifest) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeString()
		in.WantColon()
		switch key {
		case "name":
			m.Name, _ = in.Interface().(string)
		case "version":
			m.Version, _ = in.Interface().(string)
		case KeyDependencies:
			decodeSection(in, &m.Dependencies)
		case KeyDevDependencies:
			decodeSection(in, &m.DevDependencies)
		case KeyPeerDependencies:
			decodeSection(in, &m.PeerDependencies)
		case KeyOptionalDependencies:
			decodeSection(in, &m.OptionalDependencies)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

// decodeSection decodes one dependency map. A null value clears whatever an
// earlier occurrence of the same key stored.
func decodeSection(in *jlexer.Lexer, d *DependencyMap) {
	if in.IsNull() {
		in.Skip()
		*d = DependencyMap{}
		return
	}
	d.UnmarshalEasyJSON(in)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	return easyjson.Unmarshal(data, m)
}
