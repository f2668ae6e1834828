package module

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/markdown"
)

// Loader resolves a module name to a fresh module snapshot.
type Loader interface {
	Load(ctx context.Context, name string) (*Module, error)
}

// FSLoader reads modules from directories below Root.
type FSLoader struct {
	Root string
}

// NewFSLoader returns a loader rooted at root.
func NewFSLoader(root string) *FSLoader {
	return &FSLoader{Root: root}
}

type moduleFile struct {
	Config map[string]any `yaml:"config"`
	Page   *string        `yaml:"page"`
}

// Load reads and parses the named module.
func (l *FSLoader) Load(_ context.Context, name string) (*Module, error) {
	if !ValidName(name) {
		return nil, eerrors.ModuleNotFound(name, fmt.Errorf("invalid module name"))
	}
	dir := ModuleToPath(l.Root, name)
	if err := l.checkChain(name); err != nil {
		return nil, err
	}

	file := filepath.Join(dir, FileName)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, eerrors.ModuleNotFound(name, err)
	}

	var mf moduleFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, eerrors.InvalidPageModule(name, "unparseable "+FileName, err)
	}
	if mf.Config == nil {
		return nil, eerrors.InvalidPageModule(name, "config missing", nil)
	}
	if mf.Page == nil {
		return nil, eerrors.InvalidPageModule(name, "page missing", nil)
	}

	cfg := Config(mf.Config)
	layout := DefaultLayout
	if lf := cfg.String("layout"); lf != "" {
		if !filepath.IsAbs(lf) {
			lf = filepath.Join(dir, lf)
		}
		b, err := os.ReadFile(lf)
		if err != nil {
			return nil, eerrors.InvalidPageModule(name, "layout unreadable", err)
		}
		layout = string(b)
	}

	return New(name, dir, cfg, PageRenderer(*mf.Page, layout)), nil
}

// checkChain verifies the module directory and that every directory from the
// first segment down to the leaf carries a module file.
func (l *FSLoader) checkChain(name string) error {
	parts := strings.Split(name, ".")
	dir := l.Root
	for _, part := range parts {
		dir = filepath.Join(dir, part)
		info, err := os.Stat(dir)
		if err != nil {
			return eerrors.ModuleNotFound(name, err)
		}
		if !info.IsDir() {
			return eerrors.ModuleNotFound(name, fmt.Errorf("%s is not a directory", dir))
		}
		if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				err = fmt.Errorf("%s has no %s", dir, FileName)
			}
			return eerrors.ModuleNotFound(name, err)
		}
	}
	return nil
}

// PageRenderer returns the render function for a Markdown page body. Code
// blocks are highlighted once up front; each render substitutes placeholders,
// converts the Markdown and wraps the result in layout, where {content} is the
// page HTML.
func PageRenderer(source, layout string) RenderFunc {
	tmpl := markdown.HighlightEscaped(source)
	return func(ctx Context) (string, error) {
		body, err := Substitute(tmpl, ctx)
		if err != nil {
			return "", err
		}
		html, err := markdown.Parse(body)
		if err != nil {
			return "", err
		}
		lctx := make(Context, len(ctx)+2)
		lctx["title"] = ""
		for k, v := range ctx {
			lctx[k] = v
		}
		lctx["content"] = html
		return Substitute(layout, lctx)
	}
}
