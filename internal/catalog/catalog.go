package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed methods.yaml
var methodsYAML []byte

// Descriptor describes the argument shape of one API method.
type Descriptor struct {
	Name     string   `yaml:"-"`
	Required []string `yaml:"required"`
	Binary   []string `yaml:"binary"`
}

// Family returns the method's family, e.g. "chat" for "chat.postMessage"
// and "users.profile" for "users.profile.set".
func (d Descriptor) Family() string {
	i := strings.LastIndex(d.Name, ".")
	if i < 0 {
		return ""
	}
	return d.Name[:i]
}

// Missing returns the required arguments absent (or nil) in args.
func (d Descriptor) Missing(args map[string]any) []string {
	var missing []string
	for _, name := range d.Required {
		if v, ok := args[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// Catalog maps method names to descriptors.
type Catalog struct {
	methods map[string]Descriptor
	names   []string
}

type document struct {
	Methods map[string]Descriptor `yaml:"methods"`
}

// Parse reads a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse method catalog: %w", err)
	}

	c := &Catalog{methods: make(map[string]Descriptor, len(doc.Methods))}
	for name, d := range doc.Methods {
		if name == "" || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
			return nil, fmt.Errorf("invalid method name %q", name)
		}
		d.Name = name
		c.methods[name] = d
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)

	return c, nil
}

var (
	defaultCatalog *Catalog
	defaultErr     error
	once           sync.Once
)

// Default returns the embedded catalog.
func Default() *Catalog {
	once.Do(func() {
		defaultCatalog, defaultErr = Parse(methodsYAML)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultCatalog
}

// Lookup returns the descriptor for name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c.methods[name]
	return d, ok
}

// Names returns all method names in sorted order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Families returns the distinct families in sorted order.
func (c *Catalog) Families() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range c.names {
		f := c.methods[name].Family()
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of methods.
func (c *Catalog) Len() int {
	return len(c.methods)
}
