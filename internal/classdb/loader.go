package classdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/scriptbridge/internal/ctxlog"
	"github.com/vk/scriptbridge/internal/variant"
)

// HCL manifest form of a class database. One file can declare any number of
// classes:
//
//	class "Sprite" {
//	  extends     = "Node"
//	  ref_counted = false
//	  method "get_position" { returns = "vector2" }
//	  signal "frame_changed" { args = ["frame"] }
//	  constant "MAX_FRAMES" { value = 64 }
//	}

type manifestFile struct {
	Classes []*classBlock `hcl:"class,block"`
}

type classBlock struct {
	Name       string           `hcl:"name,label"`
	Extends    string           `hcl:"extends,optional"`
	RefCounted bool             `hcl:"ref_counted,optional"`
	Methods    []*methodBlock   `hcl:"method,block"`
	Signals    []*signalBlock   `hcl:"signal,block"`
	Constants  []*constantBlock `hcl:"constant,block"`
}

type methodBlock struct {
	Name    string   `hcl:"name,label"`
	Args    []string `hcl:"args,optional"`
	Returns string   `hcl:"returns,optional"`
}

type signalBlock struct {
	Name string   `hcl:"name,label"`
	Args []string `hcl:"args,optional"`
}

type constantBlock struct {
	Name  string    `hcl:"name,label"`
	Value cty.Value `hcl:"value"`
}

// LoadDir parses every .hcl manifest under dir into a fresh class database.
func LoadDir(ctx context.Context, dir string) (*DB, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("classdb: read manifest dir: %w", err)
	}

	db := New()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".hcl") {
			continue
		}
		if err := loadFile(ctx, db, filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// LoadSource parses a single manifest from memory into db. Exposed for
// tests and embedders with generated manifests.
func LoadSource(ctx context.Context, db *DB, filename string, src []byte) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("classdb: parse %s: %w", filename, diags)
	}

	var manifest manifestFile
	if diags := gohcl.DecodeBody(file.Body, nil, &manifest); diags.HasErrors() {
		return fmt.Errorf("classdb: decode %s: %w", filename, diags)
	}

	logger := ctxlog.FromContext(ctx)
	for _, cb := range manifest.Classes {
		def := &ClassDef{
			Name:       cb.Name,
			Extends:    cb.Extends,
			RefCounted: cb.RefCounted,
			Methods:    make(map[string]*MethodDef),
			Signals:    make(map[string]*SignalDef),
			Constants:  make(map[string]variant.Variant),
		}
		for _, m := range cb.Methods {
			def.Methods[m.Name] = &MethodDef{Name: m.Name, Args: m.Args, Returns: m.Returns}
		}
		for _, s := range cb.Signals {
			def.Signals[s.Name] = &SignalDef{Name: s.Name, Args: s.Args}
		}
		for _, c := range cb.Constants {
			v, err := variant.FromCty(c.Value)
			if err != nil {
				return fmt.Errorf("classdb: constant %s.%s: %w", cb.Name, c.Name, err)
			}
			def.Constants[c.Name] = v
		}
		db.Register(def)
		logger.Debug("Registered class.", "name", cb.Name, "extends", cb.Extends, "refCounted", cb.RefCounted)
	}
	return nil
}

func loadFile(ctx context.Context, db *DB, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("classdb: read %s: %w", path, err)
	}
	return LoadSource(ctx, db, path, src)
}
