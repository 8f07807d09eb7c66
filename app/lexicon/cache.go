package lexicon

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var validKinds = map[string]bool{
	"string":   true,
	"integer":  true,
	"boolean":  true,
	"datetime": true,
	"uri":      true,
}

type Cache struct {
	lexiconsDir string
	cache       map[string]*Definition
	mu          sync.RWMutex
}

func NewCache(lexiconsDir string) *Cache {
	return &Cache{
		lexiconsDir: lexiconsDir,
		cache:       make(map[string]*Definition),
	}
}

func (c *Cache) Run() error {
	if _, err := os.Stat(c.lexiconsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.lexiconsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		def, err := c.LoadDefinition(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Record definition loaded", "nsid", def.NSID, "fields", len(def.Fields))
	}

	return nil
}

func (c *Cache) LoadDefinition(file string) (*Definition, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := c.validateDefinition(&def); err != nil {
		return nil, fmt.Errorf("invalid definition %s: %w", file, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[def.NSID] = &def

	return &def, nil
}

func (c *Cache) GetDefinition(nsid string) (*Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.cache[nsid]
	if !ok {
		return nil, fmt.Errorf("record definition for '%s' not found", nsid)
	}
	return def, nil
}

func (c *Cache) GetDefinitions() map[string]*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defsCopy := make(map[string]*Definition, len(c.cache))
	for k, v := range c.cache {
		defsCopy[k] = v
	}
	return defsCopy
}

func (c *Cache) GetDefinitionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// ValidateRecord checks a record value against the definition registered for
// the given NSID. Unknown fields are rejected to keep cached mirrors and
// user repositories in agreement about record shape.
func (c *Cache) ValidateRecord(nsid string, value map[string]interface{}) error {
	def, err := c.GetDefinition(nsid)
	if err != nil {
		return err
	}

	known := make(map[string]Field, len(def.Fields))
	for _, f := range def.Fields {
		known[f.Name] = f
	}

	for name := range value {
		if name == "$type" || name == "createdAt" {
			continue
		}
		if _, ok := known[name]; !ok {
			return fmt.Errorf("unknown field '%s' for %s", name, nsid)
		}
	}

	for _, field := range def.Fields {
		raw, present := value[field.Name]
		if !present || raw == nil {
			if field.Required {
				return fmt.Errorf("field '%s' is required for %s", field.Name, nsid)
			}
			continue
		}

		if err := validateField(field, raw); err != nil {
			return fmt.Errorf("field '%s': %w", field.Name, err)
		}
	}

	return nil
}

func validateField(field Field, raw interface{}) error {
	switch field.Kind {
	case "string", "uri", "datetime":
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", raw)
		}
		if field.MaxLen > 0 && len(s) > field.MaxLen {
			return fmt.Errorf("exceeds maximum length %d", field.MaxLen)
		}
		if field.Kind == "uri" && !strings.Contains(s, "://") {
			return fmt.Errorf("not a valid URI: %s", s)
		}
		if len(field.Enum) > 0 {
			found := false
			for _, allowed := range field.Enum {
				if s == allowed {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("value '%s' not in allowed set", s)
			}
		}
	case "integer":
		n, err := toInt(raw)
		if err != nil {
			return err
		}
		if field.Min != nil && n < *field.Min {
			return fmt.Errorf("value %d below minimum %d", n, *field.Min)
		}
		if field.Max != nil && n > *field.Max {
			return fmt.Errorf("value %d above maximum %d", n, *field.Max)
		}
	case "boolean":
		if _, ok := raw.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", raw)
		}
	default:
		return fmt.Errorf("unsupported field kind '%s'", field.Kind)
	}

	return nil
}

func toInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		// JSON numbers decode as float64
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

func (c *Cache) validateDefinition(def *Definition) error {
	if def == nil {
		return fmt.Errorf("definition is nil")
	}
	if def.NSID == "" {
		return fmt.Errorf("nsid is required")
	}
	if len(def.Fields) == 0 {
		return fmt.Errorf("at least one field is required")
	}

	for i, field := range def.Fields {
		if field.Name == "" {
			return fmt.Errorf("field at index %d has no name", i)
		}
		if !validKinds[field.Kind] {
			return fmt.Errorf("invalid field kind at index %d: %s", i, field.Kind)
		}
		if field.Min != nil && field.Max != nil && *field.Min > *field.Max {
			return fmt.Errorf("field '%s' has min greater than max", field.Name)
		}
	}

	return nil
}
