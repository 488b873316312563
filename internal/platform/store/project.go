package store

import "encoding/json"

// Project returns the JSON form of v restricted to fields. The id field is
// always kept. An empty field list returns every field.
func Project(v any, fields []string) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var full map[string]any
	if err := json.Unmarshal(b, &full); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return full, nil
	}
	out := make(map[string]any, len(fields)+1)
	if id, ok := full["id"]; ok {
		out["id"] = id
	}
	for _, f := range fields {
		if val, ok := full[f]; ok {
			out[f] = val
		}
	}
	return out, nil
}

// ProjectAll applies Project to each item.
func ProjectAll[T any](items []T, fields []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		m, err := Project(it, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
