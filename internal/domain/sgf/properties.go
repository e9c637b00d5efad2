package sgf

// Property is one key with all of its values, in file order.
type Property struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// Properties maps SGF keys to their values. Keys keep the order in which they were
// first added, values keep the order in which they were appended.
type Properties struct {
	keys   []string
	values map[string][]string
}

// NormalizeKey upper-cases ASCII letters and drops every other byte.
func NormalizeKey(key string) string {
	b := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b = append(b, c)
		case c >= 'a' && c <= 'z':
			b = append(b, c-'a'+'A')
		}
	}
	return string(b)
}

func (p *Properties) Add(key, value string) {
	key = NormalizeKey(key)
	if key == "" {
		return
	}
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append(p.values[key], value)
}

// Set replaces all values of key. A key that already exists keeps its position.
// Set with no values deletes the key.
func (p *Properties) Set(key string, values ...string) {
	key = NormalizeKey(key)
	if key == "" {
		return
	}
	if len(values) == 0 {
		p.Delete(key)
		return
	}
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append([]string(nil), values...)
}

func (p *Properties) Delete(key string) {
	key = NormalizeKey(key)
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Get returns the first value of key, or "" when the key is absent.
func (p *Properties) Get(key string) string {
	v, _ := p.Lookup(key)
	return v
}

func (p *Properties) Lookup(key string) (string, bool) {
	vals := p.values[NormalizeKey(key)]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (p *Properties) Values(key string) []string {
	return append([]string(nil), p.values[NormalizeKey(key)]...)
}

func (p *Properties) Has(key string) bool {
	_, ok := p.values[NormalizeKey(key)]
	return ok
}

func (p *Properties) Keys() []string {
	return append([]string(nil), p.keys...)
}

func (p *Properties) Len() int {
	return len(p.keys)
}

// List returns a copy of every property in key order.
func (p *Properties) List() []Property {
	out := make([]Property, 0, len(p.keys))
	for _, k := range p.keys {
		out = append(out, Property{Key: k, Values: p.Values(k)})
	}
	return out
}
