package config

import (
	"fmt"
)

func convert(mp map[any]any) map[string]any {
	m := make(map[string]any, len(mp))
	for k, v := range mp {
		m[fmt.Sprintf("%v", k)] = v
	}
	return m
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		return convert(m), true
	}
	return nil, false
}

// merge copies src into dest. Nested maps are merged, otherwise the later source wins.
func merge(dest, src map[string]any) {
	for sk, sv := range src {
		sm, sok := asMap(sv)
		if sok {
			sv = sm
		}
		tm, tok := asMap(dest[sk])
		if tok && sok {
			merge(tm, sm)
			dest[sk] = tm
			continue
		}
		dest[sk] = sv
	}
}

func lookup(m map[string]any, paths []string) (any, bool) {
	var cur any = m
	for _, p := range paths {
		mp, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = mp[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// flatten returns every leaf keyed by its delimited path.
func flatten(src map[string]any, prefix, delimiter string) map[string]any {
	data := make(map[string]any)
	for k, v := range src {
		p := k
		if prefix != "" {
			p = prefix + delimiter + k
		}
		m, ok := asMap(v)
		if !ok || len(m) == 0 {
			data[p] = v
			continue
		}
		for mk, mv := range flatten(m, p, delimiter) {
			data[mk] = mv
		}
	}
	return data
}
