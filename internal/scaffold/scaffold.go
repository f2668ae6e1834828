// Package scaffold creates new page modules and registers them in the sitemap.
package scaffold

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/logfields"
	"git.home.luguber.info/inful/enerator/internal/module"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
)

// DefaultPage is the Markdown body of a freshly added page.
const DefaultPage = "# {title}\n\n*Hello*, site content!\n"

// Options describes the page to add.
type Options struct {
	Root     string
	Module   string
	Sitepath string
	Title    string
	Store    sitemap.Store
}

// Result reports what Add did.
type Result struct {
	Dir      string
	Sitepath string
	Title    string
	// Created is false when the module file already existed and was kept.
	Created bool
}

type leafFile struct {
	Config leafConfig `yaml:"config"`
	Page   string     `yaml:"page"`
}

type leafConfig struct {
	Path  string   `yaml:"path"`
	Title string   `yaml:"title"`
	Watch []string `yaml:"watch"`
}

// Add creates the module directory chain with empty initializers, writes the
// leaf module file unless one exists, and merges {sitepath, title} into the
// sitemap.
func Add(ctx context.Context, opts Options) (*Result, error) {
	if !module.ValidName(opts.Module) {
		return nil, eerrors.ValidationFailed("module", "invalid module name "+opts.Module)
	}
	if opts.Store == nil {
		return nil, eerrors.InternalError("scaffold requires a sitemap store", nil)
	}

	sitepath := opts.Sitepath
	if sitepath == "" {
		sitepath = "/" + strings.ReplaceAll(opts.Module, ".", "/")
	}
	sitepath = sitemap.NormalizeSitepath(sitepath)
	title := opts.Title
	if title == "" {
		title = DefaultTitle(opts.Module)
	}

	dir, err := createDirs(opts.Root, opts.Module)
	if err != nil {
		return nil, err
	}

	created, err := writeLeaf(dir, sitepath, title)
	if err != nil {
		return nil, err
	}

	if err := opts.Store.Update(ctx, opts.Module, sitemap.Page{Sitepath: sitepath, Title: title}); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Page added",
		logfields.Module(opts.Module), logfields.Sitepath(sitepath), logfields.Path(dir),
		slog.Bool("created", created))
	return &Result{Dir: dir, Sitepath: sitepath, Title: title, Created: created}, nil
}

// DefaultTitle derives a title from the last segment of a module name.
func DefaultTitle(name string) string {
	last := name[strings.LastIndex(name, ".")+1:]
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(last))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// createDirs makes every directory of the module below root, giving each an
// empty module file when it has none. root itself is left untouched.
func createDirs(root, name string) (string, error) {
	dir := root
	for _, part := range strings.Split(name, ".") {
		dir = filepath.Join(dir, part)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", eerrors.FileSystemError("mkdir", dir, err)
		}
		marker := filepath.Join(dir, module.FileName)
		f, err := os.OpenFile(marker, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		switch {
		case errors.Is(err, os.ErrExist):
		case err != nil:
			return "", eerrors.FileSystemError("create", marker, err)
		default:
			if err := f.Close(); err != nil {
				return "", eerrors.FileSystemError("close", marker, err)
			}
		}
	}
	return dir, nil
}

// writeLeaf writes the page template unless the leaf already holds a page.
func writeLeaf(dir, sitepath, title string) (bool, error) {
	file := filepath.Join(dir, module.FileName)
	info, err := os.Stat(file)
	if err != nil {
		return false, eerrors.FileSystemError("stat", file, err)
	}
	if info.Size() > 0 {
		return false, nil
	}

	data, err := yaml.Marshal(leafFile{
		Config: leafConfig{Path: sitepath, Title: title, Watch: []string{module.FileName}},
		Page:   DefaultPage,
	})
	if err != nil {
		return false, eerrors.InternalError("encode page template", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil { //nolint:gosec // page sources are not secret
		return false, eerrors.FileSystemError("write", file, err)
	}
	return true, nil
}
