package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/module"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
)

func TestAdd(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := sitemap.NewJSONStore(filepath.Join(root, "pages.json"))

	res, err := Add(ctx, Options{Root: root, Module: "pages.blog.first_post", Sitepath: "blog/first/", Store: store})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "/blog/first", res.Sitepath)
	assert.Equal(t, "First Post", res.Title)
	assert.Equal(t, filepath.Join(root, "pages", "blog", "first_post"), res.Dir)

	for _, d := range []string{"pages", filepath.Join("pages", "blog")} {
		info, err := os.Stat(filepath.Join(root, d, module.FileName))
		require.NoError(t, err)
		assert.Zero(t, info.Size(), "initializers are empty")
	}
	_, err = os.Stat(filepath.Join(root, module.FileName))
	assert.True(t, os.IsNotExist(err), "root gets no initializer")

	m, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, sitemap.Page{Sitepath: "/blog/first", Title: "First Post"}, m["pages.blog.first_post"])

	// The scaffolded page loads and renders.
	mod, err := module.NewFSLoader(root).Load(ctx, "pages.blog.first_post")
	require.NoError(t, err)
	assert.Equal(t, "/blog/first", mod.Path())
	assert.Equal(t, []string{filepath.Join(res.Dir, module.FileName)}, mod.Watch())
	html, err := mod.Render(module.Context{"title": "First Post"})
	require.NoError(t, err)
	assert.Contains(t, html, "<em>Hello</em>, site content!")
	assert.Contains(t, html, "<h1>First Post</h1>")
}

func TestAdd_KeepsExistingPage(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := sitemap.NewJSONStore(filepath.Join(root, "pages.json"))

	res, err := Add(ctx, Options{Root: root, Module: "pages.home", Sitepath: "/", Title: "Home", Store: store})
	require.NoError(t, err)
	custom := []byte("config:\n  path: /\npage: custom\n")
	require.NoError(t, os.WriteFile(filepath.Join(res.Dir, module.FileName), custom, 0o600))

	res, err = Add(ctx, Options{Root: root, Module: "pages.home", Sitepath: "/", Title: "Start", Store: store})
	require.NoError(t, err)
	assert.False(t, res.Created)

	data, err := os.ReadFile(filepath.Join(res.Dir, module.FileName))
	require.NoError(t, err)
	assert.Equal(t, custom, data)

	m, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Start", m["pages.home"].Title)
}

func TestAdd_DefaultSitepath(t *testing.T) {
	root := t.TempDir()
	store := sitemap.NewJSONStore(filepath.Join(root, "pages.json"))
	res, err := Add(context.Background(), Options{Root: root, Module: "pages.about", Store: store})
	require.NoError(t, err)
	assert.Equal(t, "/pages/about", res.Sitepath)
}

func TestAdd_InvalidName(t *testing.T) {
	root := t.TempDir()
	store := sitemap.NewJSONStore(filepath.Join(root, "pages.json"))
	_, err := Add(context.Background(), Options{Root: root, Module: "../x", Store: store})
	assert.True(t, eerrors.IsCategory(err, eerrors.CategoryValidation))
}

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "About", DefaultTitle("pages.about"))
	assert.Equal(t, "My Long Title", DefaultTitle("pages.my_long-title"))
	assert.Equal(t, "Home", DefaultTitle("home"))
}
