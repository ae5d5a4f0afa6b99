package entity

import "fmt"

func enumName[T comparable](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return "unknown"
}

func parseEnum[T comparable](names map[T]string, kind string, b []byte) (T, error) {
	for v, name := range names {
		if name == string(b) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s: %q", kind, string(b))
}
