package driven

// ConfigStore is flat key/value configuration keyed by dot-notation names
// such as "chunk.size". Typed getters return the zero value for a missing
// key or a value of the wrong type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64

	// Set stores value and persists it.
	Set(key string, value any) error

	// Save writes every value to the backing file.
	Save() error

	// Keys lists stored keys, sorted.
	Keys() []string

	// Path is where the configuration lives.
	Path() string
}
