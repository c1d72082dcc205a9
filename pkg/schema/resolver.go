/*
Package schema loads the JSON-Schema documents that describe the output of
every Airflow tool and inlines local file $refs so each document is
self-contained for downstream validators.
*/
package schema

import (
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-openapi/jsonpointer"
	errs "github.com/theapemachine/airflow-mcp/pkg/errors"
	"github.com/theapemachine/airflow-mcp/pkg/types"
)

const refKey = "$ref"

/*
Resolver reads schema files from a filesystem root. It holds no state between
calls: every Load re-reads and re-resolves from the filesystem.
*/
type Resolver struct {
	fsys   fs.FS
	strict bool
}

type Option func(*Resolver)

/*
WithStrictCycles makes a cyclic $ref fail with CycleDetected instead of
being replaced by an empty object.
*/
func WithStrictCycles() Option {
	return func(r *Resolver) {
		r.strict = true
	}
}

/*
New returns a Resolver rooted at fsys.
*/
func New(fsys fs.FS, opts ...Option) *Resolver {
	r := &Resolver{fsys: fsys}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

/*
NewDir returns a Resolver rooted at a directory on disk.
*/
func NewDir(dir string, opts ...Option) *Resolver {
	return New(os.DirFS(dir), opts...)
}

/*
Load returns the schema stored at <root>/<name>.json with every local $ref
replaced by the content it points to. name is a "/" separated path without
extension, e.g. "dag/dag".
*/
func (r *Resolver) Load(name string) (types.Value, error) {
	file := path.Clean(strings.TrimPrefix(name, "/") + ".json")

	raw, err := r.read(file)

	if err != nil {
		return types.Value{}, err
	}

	return r.resolve(raw, path.Dir(file), file, map[string]struct{}{})
}

/*
LoadAll loads several schemas, keyed by name. The first failure aborts.
*/
func (r *Resolver) LoadAll(names ...string) (map[string]types.Value, error) {
	out := make(map[string]types.Value, len(names))

	for _, name := range names {
		doc, err := r.Load(name)

		if err != nil {
			return nil, err
		}

		out[name] = doc
	}

	return out, nil
}

func (r *Resolver) read(file string) (types.Value, error) {
	if !fs.ValidPath(file) {
		return types.Value{}, errs.NotFound(file, fs.ErrInvalid)
	}

	data, err := fs.ReadFile(r.fsys, file)

	if err != nil {
		return types.Value{}, errs.NotFound(file, err)
	}

	return types.Parse(file, data)
}

/*
resolve walks node. dir is the directory of the file node came from and is
the base for relative refs, current is that file's path. visited holds the
files reached through a followed $ref on the current chain, so the root file
is inlined once more before a self reference becomes {}.
*/
func (r *Resolver) resolve(
	node types.Value, dir, current string, visited map[string]struct{},
) (types.Value, error) {
	switch node.Kind() {
	case types.Object:
		if ref, ok := localRef(node); ok {
			return r.inline(ref, dir, current, visited)
		}

		fields := node.Fields()

		for key, field := range fields {
			resolved, err := r.resolve(field, dir, current, visited)

			if err != nil {
				return types.Value{}, err
			}

			fields[key] = resolved
		}

		return types.NewObject(fields), nil
	case types.Array:
		items := node.Items()

		for i, item := range items {
			resolved, err := r.resolve(item, dir, current, visited)

			if err != nil {
				return types.Value{}, err
			}

			items[i] = resolved
		}

		return types.NewArray(items...), nil
	}

	return node, nil
}

func (r *Resolver) inline(
	ref, dir, current string, visited map[string]struct{},
) (types.Value, error) {
	file, fragment, _ := strings.Cut(ref, "#")
	target := path.Join(dir, file)

	if strings.HasPrefix(file, "/") {
		target = path.Clean(strings.TrimPrefix(file, "/"))
	}

	if _, seen := visited[target]; seen {
		if r.strict {
			return types.Value{}, errs.CycleDetected(current, ref)
		}

		log.Warn("cyclic schema reference replaced by {}", "file", current, "ref", ref)
		return types.EmptyObject(), nil
	}

	raw, err := r.read(target)

	if err != nil {
		return types.Value{}, err
	}

	visited[target] = struct{}{}
	resolved, err := r.resolve(raw, path.Dir(target), target, visited)
	delete(visited, target)

	if err != nil {
		return types.Value{}, err
	}

	if fragment == "" {
		return resolved, nil
	}

	return pointer(resolved, target, fragment)
}

/*
pointer applies a JSON pointer fragment to an already resolved document.
*/
func pointer(doc types.Value, source, fragment string) (types.Value, error) {
	ptr, err := jsonpointer.New(fragment)

	if err != nil {
		return types.Value{}, errs.NotFound(source+"#"+fragment, err)
	}

	found, _, err := ptr.Get(doc.ToAny())

	if err != nil {
		return types.Value{}, errs.NotFound(source+"#"+fragment, err)
	}

	return types.FromAny(found)
}

/*
localRef reports the $ref of node when it points at a file on the same
filesystem. Remote and in-document refs are left for validators.
*/
func localRef(node types.Value) (string, bool) {
	val, ok := node.Get(refKey)

	if !ok {
		return "", false
	}

	ref, ok := val.AsString()

	if !ok {
		return "", false
	}

	if strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "#") {
		return "", false
	}

	return ref, true
}
