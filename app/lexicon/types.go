package lexicon

// Definition describes a record type served by the application: the NSID of
// the record collection and the constraints applied to record values before
// they are written to a user's repository.
type Definition struct {
	NSID        string  `yaml:"nsid"`
	Description string  `yaml:"description"`
	Fields      []Field `yaml:"fields"`
}

type Field struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"` // string, integer, boolean, datetime, uri
	Required bool     `yaml:"required"`
	MaxLen   int      `yaml:"max_len"`
	Min      *int     `yaml:"min"`
	Max      *int     `yaml:"max"`
	Enum     []string `yaml:"enum"`
}
