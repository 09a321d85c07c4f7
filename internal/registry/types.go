package registry

// Resource is one REST collection backed by one table.
type Resource struct {
	Name      string               `yaml:"-"`
	Table     string               `yaml:"table" validate:"required"`
	Columns   []Column             `yaml:"columns" validate:"required,min=1,dive"`
	Filters   []string             `yaml:"filters"`
	Search    []string             `yaml:"search"`
	Relations map[string]*Relation `yaml:"relations" validate:"dive"`
	Sort      string               `yaml:"sort"`
	PerPage   int                  `yaml:"per_page" validate:"min=0,max=100"`
	Writable  []string             `yaml:"writable"`
	// Nested lists has_many relations whose rows may be sent inside a create body.
	Nested []string `yaml:"nested"`
}

type Column struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"oneof=uuid string text int decimal bool time"`
}

// Relation links two resources. For belongs_to FK is a column of the owning resource;
// for has_many it is a column of the target pointing back at PK.
type Relation struct {
	Resource string `yaml:"resource" validate:"required"`
	Type     string `yaml:"type" validate:"oneof=belongs_to has_many"`
	FK       string `yaml:"fk"`
	PK       string `yaml:"pk"`

	target *Resource
}

func (r *Relation) Target() *Resource { return r.target }

func (r *Resource) Column(name string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (r *Resource) ColumnNames() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = c.Name
	}
	return out
}

func (r *Resource) IsFilterable(name string) bool { return contains(r.Filters, name) }

func (r *Resource) IsWritable(name string) bool { return contains(r.Writable, name) }

func (r *Resource) AcceptsNested(name string) bool { return contains(r.Nested, name) }

func (r *Resource) Relation(name string) (*Relation, bool) {
	rel, ok := r.Relations[name]
	return rel, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
