package config

// Tree is a read-only nested configuration tree addressed by dotted keys.
// *viper.Viper satisfies it.
type Tree interface {
	IsSet(key string) bool
	Get(key string) any
	GetString(key string) string
}

// MapTree is a Tree over plain nested maps. Keys are split on dots.
type MapTree map[string]any

// IsSet reports whether key resolves to a non-nil value.
func (m MapTree) IsSet(key string) bool {
	return m.Get(key) != nil
}

// Get returns the value at key, or nil.
func (m MapTree) Get(key string) any {
	var cur any = map[string]any(m)
	for _, part := range splitKey(key) {
		node, ok := cur.(map[string]any)
		if !ok {
			if mt, isTree := cur.(MapTree); isTree {
				node = mt
			} else {
				return nil
			}
		}
		cur, ok = node[part]
		if !ok {
			return nil
		}
	}
	return cur
}

// GetString returns the string at key, or "" when absent or not a string.
func (m MapTree) GetString(key string) string {
	s, _ := m.Get(key).(string)
	return s
}

func splitKey(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	return append(parts, key[start:])
}
