package binding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"
)

// catalogSchema constrains CUE catalog documents. Definitions are closed,
// so misspelt fields are reported by CUE with their position.
const catalogSchema = `
#Property: {
	name:     string & !=""
	type?:    string
	column?:  string
	sqlType?: string
	complex?: string
}

#Navigation: {
	name:        string & !=""
	target:      string & !=""
	joinColumn?: string
}

#Entity: {
	name:  string & !=""
	set?:  string
	table: string & !=""
	key: [string, ...string]
	properties: [...#Property]
	navigations?: [...#Navigation]
}

#Complex: {
	name: string & !=""
	properties: [...#Property]
}

#Catalog: {
	namespace?: string
	entities: [...#Entity]
	complexTypes?: [...#Complex]
}
`

// Load reads a catalog from a YAML file, a CUE file, or a directory of CUE
// files. In CUE sources the document lives under a top-level "catalog"
// field when present, otherwise at the root.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	var doc *Document
	switch {
	case info.IsDir():
		doc, err = loadCUEDir(path)
	case filepath.Ext(path) == ".cue":
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			doc, err = ParseCUE(data, path)
		}
	default:
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			doc, err = ParseYAML(data)
		}
	}
	if err != nil {
		return nil, err
	}
	return NewCatalog(doc)
}

// ParseYAML decodes a YAML catalog document. Unknown fields are errors.
func ParseYAML(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog: empty document")
		}
		return nil, fmt.Errorf("catalog: parsing YAML: %w", err)
	}
	return &doc, nil
}

// ParseCUE compiles a single CUE source and decodes it into a Document
// after checking it against the catalog schema.
func ParseCUE(src []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("catalog: compiling CUE: %w", err)
	}
	return decodeCUE(ctx, value)
}

func loadCUEDir(dir string) (*Document, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("catalog: no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("catalog: loading CUE files: %w", inst.Err)
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("catalog: building CUE value: %w", err)
	}
	return decodeCUE(ctx, value)
}

func decodeCUE(ctx *cue.Context, value cue.Value) (*Document, error) {
	if v := value.LookupPath(cue.ParsePath("catalog")); v.Exists() {
		value = v
	}

	schema := ctx.CompileString(catalogSchema).LookupPath(cue.ParsePath("#Catalog"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("catalog: schema: %w", err)
	}
	value = schema.Unify(value)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	var doc Document
	if err := value.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decoding CUE: %w", err)
	}
	return &doc, nil
}
