package db

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tgienger/todo/internal/models"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://github.com/tgienger/todo/schemas/"

// compileSchema compiles one of the embedded file schemas
func compileSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	url := schemaBaseURL + name
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// jsonFile is a JSON document that is always read and written whole
type jsonFile struct {
	path   string
	schema *jsonschema.Schema // nil skips validation
}

func storageError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", models.ErrStorage, op, path, err)
}

// ensure creates the file holding an empty array if it does not exist
func (f jsonFile) ensure() error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return storageError("stat", f.path, err)
	}
	return writeFileAtomic(f.path, []byte("[]\n"), 0644)
}

// read decodes the file into v. A missing or blank file leaves v untouched.
func (f jsonFile) read(v any) error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return storageError("read", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if f.schema != nil {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return storageError("parse", f.path, err)
		}
		if err := f.schema.Validate(doc); err != nil {
			return storageError("validate", f.path, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return storageError("parse", f.path, err)
	}
	return nil
}

// write replaces the file with v encoded as indented JSON
func (f jsonFile) write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return storageError("encode", f.path, err)
	}
	data = append(data, '\n')
	return writeFileAtomic(f.path, data, 0644)
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return storageError("create temp for", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return storageError("write", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return storageError("sync", path, err)
	}
	if err = tmp.Close(); err != nil {
		return storageError("close", path, err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return storageError("chmod", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return storageError("replace", path, err)
	}
	return nil
}
