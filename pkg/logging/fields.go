package logging

import "time"

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Engine-domain field helpers

// Rank tags an entry with the worker's rank in its group.
func Rank(rank int) Field {
	return Int("rank", rank)
}

// Round tags an entry with the gather round id.
func Round(id string) Field {
	return String("round", id)
}

// Fragment tags an entry with a local fragment index.
func Fragment(i int) Field {
	return Int("fragment", i)
}

// Component tags an entry with the emitting component name.
func Component(name string) Field {
	return String("component", name)
}
