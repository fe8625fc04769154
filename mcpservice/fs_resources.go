package mcpservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/ggoodman/mcp-whatsapp-go/uritemplate"
)

// FSResource serves a resource family from the files of an fs.FS (typically
// an embed.FS). The template must end in a single placeholder segment; the
// bound value plus the extension names the file to read:
//
//	//go:embed docs/*.md
//	var docsFS embed.FS
//
//	sub, _ := fs.Sub(docsFS, "docs")
//	d, err := mcpservice.NewFSResource("documentation", "whatsapp://docs/{topic}", sub)
//
// Only regular files at the root of fsys are served. Parent traversal and
// symlinks are rejected.
type FSResource struct {
	fsys fs.FS
	ext  string
	key  string
}

// FSOption configures NewFSResource.
type FSOption func(*FSResource)

// WithExtension sets the file extension appended to the bound value.
// Defaults to ".md".
func WithExtension(ext string) FSOption {
	return func(r *FSResource) { r.ext = ext }
}

var errFSTemplate = errors.New("mcpservice: fs resource template must end in a single placeholder")

// NewFSResource builds a descriptor whose handler reads files from fsys and
// whose enumerator lists them. Resource options apply after the FS options.
func NewFSResource(name, template string, fsys fs.FS, fsOpts []FSOption, opts ...ResourceOption) (ResourceDescriptor, error) {
	t, err := uritemplate.Parse(template)
	if err != nil {
		return ResourceDescriptor{}, err
	}
	names := t.Names()
	if len(names) != 1 || !strings.HasSuffix(template, "/{"+names[0]+"}") {
		return ResourceDescriptor{}, fmt.Errorf("%w: %s", errFSTemplate, template)
	}

	r := &FSResource{fsys: fsys, ext: ".md", key: names[0]}
	for _, o := range fsOpts {
		o(r)
	}

	d := ResourceDescriptor{
		Name:     name,
		Template: t,
		MimeType: "text/markdown",
		Handler:  r.read,
		Enumerator: func() ([]string, error) {
			return t.ExpandEach(r.Keys()...)
		},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d, nil
}

// Keys returns the sorted file stems served by r.
func (r *FSResource) Keys() []string {
	entries, err := fs.ReadDir(r.fsys, ".")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || isSymlink(e) || path.Ext(e.Name()) != r.ext {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), r.ext))
	}
	sort.Strings(out)
	return out
}

func (r *FSResource) read(_ context.Context, uri string, params uritemplate.Params) Result {
	rel := params[r.key] + r.ext
	if !validFSPath(rel) || strings.Contains(rel, "/") {
		return Fail(KindUnknownResource, "Unknown resource: %s", uri)
	}
	data, err := fs.ReadFile(r.fsys, rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Fail(KindUnknownResource, "Unknown resource: %s", uri)
		}
		return Fail(KindInternal, "read failed: %v", err)
	}
	return Text(string(data))
}

func isSymlink(d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink != 0 {
		return true
	}
	if info, err := d.Info(); err == nil {
		return info.Mode()&fs.ModeSymlink != 0
	}
	return false
}

func validFSPath(p string) bool {
	// fs.ValidPath requires clean, no leading slash, and no ".." segments.
	if !fs.ValidPath(p) {
		return false
	}
	return !strings.Contains(p, ":")
}
