package schema

import (
	"testing"
	"testing/fstest"

	. "github.com/smartystreets/goconvey/convey"
	errs "github.com/theapemachine/airflow-mcp/pkg/errors"
	"github.com/theapemachine/airflow-mcp/pkg/types"
)

func file(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func mustParse(t *testing.T, content string) types.Value {
	t.Helper()

	val, err := types.Parse("expected", []byte(content))

	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	return val
}

/*
hasLocalRef reports whether any object in the tree still carries a local $ref.
*/
func hasLocalRef(v types.Value) bool {
	switch v.Kind() {
	case types.Object:
		if _, ok := localRef(v); ok {
			return true
		}

		for _, f := range v.Fields() {
			if hasLocalRef(f) {
				return true
			}
		}
	case types.Array:
		for _, item := range v.Items() {
			if hasLocalRef(item) {
				return true
			}
		}
	}

	return false
}

func TestLoad(t *testing.T) {
	Convey("Given a schema tree with a relative $ref chain", t, func() {
		fsys := fstest.MapFS{
			"dag/dag.json": file(`{
				"type": "object",
				"properties": {
					"tags": {"type": "array", "items": {"$ref": "../commons/tag.json"}},
					"schedule": {"$ref": "schedule.json", "description": "dropped sibling"}
				}
			}`),
			"dag/schedule.json":  file(`{"oneOf": [{"$ref": "../commons/delta.json"}, {"type": "null"}]}`),
			"commons/tag.json":   file(`{"type": "object", "properties": {"name": {"type": "string"}}}`),
			"commons/delta.json": file(`{"type": "object", "properties": {"days": {"type": "integer"}}}`),
		}

		resolver := New(fsys)

		Convey("When the schema is loaded", func() {
			doc, err := resolver.Load("dag/dag")

			Convey("Then every local reference is inlined", func() {
				So(err, ShouldBeNil)
				So(hasLocalRef(doc), ShouldBeFalse)

				expected := mustParse(t, `{
					"type": "object",
					"properties": {
						"tags": {"type": "array", "items": {"type": "object", "properties": {"name": {"type": "string"}}}},
						"schedule": {"oneOf": [
							{"type": "object", "properties": {"days": {"type": "integer"}}},
							{"type": "null"}
						]}
					}
				}`)

				So(doc.Equal(expected), ShouldBeTrue)
			})
		})

		Convey("When the schema is loaded twice", func() {
			first, err1 := resolver.Load("dag/dag")
			second, err2 := resolver.Load("dag/dag")

			Convey("Then both are equal but independent", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Equal(second), ShouldBeTrue)

				fields := first.Fields()
				fields["type"] = types.NewString("mutated")
				So(first.Equal(second), ShouldBeTrue)
			})
		})

		Convey("When a leading slash is used in the name", func() {
			doc, err := resolver.Load("/commons/tag")

			So(err, ShouldBeNil)
			So(doc.Kind(), ShouldEqual, types.Object)
		})
	})

	Convey("Given a schema whose property references itself", t, func() {
		fsys := fstest.MapFS{"node.json": file(`{"p": {"$ref": "node.json"}}`)}
		doc, err := New(fsys).Load("node")

		So(err, ShouldBeNil)
		So(doc.String(), ShouldEqual, `{"p":{"p":{}}}`)
	})

	Convey("Given a schema that references itself", t, func() {
		fsys := fstest.MapFS{
			"node.json": file(`{"type": "object", "properties": {"child": {"$ref": "node.json"}}}`),
		}

		Convey("When it is loaded", func() {
			doc, err := New(fsys).Load("node")

			Convey("Then it is inlined one level before the cycle becomes an empty object", func() {
				So(err, ShouldBeNil)
				So(doc.Equal(mustParse(t, `{
					"type": "object",
					"properties": {"child": {"type": "object", "properties": {"child": {}}}}
				}`)), ShouldBeTrue)
			})
		})

		Convey("When it is loaded in strict mode", func() {
			_, err := New(fsys, WithStrictCycles()).Load("node")

			Convey("Then CycleDetected is returned", func() {
				So(errs.Is(err, errs.ErrCycleDetected), ShouldBeTrue)
			})
		})
	})

	Convey("Given a transitive cycle a -> b -> a", t, func() {
		fsys := fstest.MapFS{
			"a.json": file(`{"title": "a", "next": {"$ref": "b.json"}}`),
			"b.json": file(`{"title": "b", "next": {"$ref": "./a.json"}}`),
		}

		doc, err := New(fsys).Load("a")

		Convey("Then resolution terminates once a followed ref repeats", func() {
			So(err, ShouldBeNil)
			So(doc.Equal(mustParse(t, `{
				"title": "a",
				"next": {"title": "b", "next": {"title": "a", "next": {}}}
			}`)), ShouldBeTrue)
		})
	})

	Convey("Given the same file referenced twice without a cycle", t, func() {
		fsys := fstest.MapFS{
			"pair.json": file(`{"left": {"$ref": "leaf.json"}, "right": {"$ref": "leaf.json"}}`),
			"leaf.json": file(`{"type": "string"}`),
		}

		doc, err := New(fsys).Load("pair")

		Convey("Then both references are inlined", func() {
			So(err, ShouldBeNil)
			So(doc.Equal(mustParse(t, `{"left": {"type": "string"}, "right": {"type": "string"}}`)), ShouldBeTrue)
		})
	})

	Convey("Given remote and in-document references", t, func() {
		fsys := fstest.MapFS{
			"remote.json": file(`{"$ref": "http://json-schema.org/draft-07/schema#"}`),
			"anchor.json": file(`{"definitions": {"x": {"type": "string"}}, "items": {"$ref": "#/definitions/x"}}`),
			"secure.json": file(`[{"$ref": "https://example.com/s.json"}]`),
		}
		resolver := New(fsys)

		Convey("Then they are left untouched", func() {
			for _, name := range []string{"remote", "anchor", "secure"} {
				doc, err := resolver.Load(name)
				So(err, ShouldBeNil)

				raw, _ := fsys.ReadFile(name + ".json")
				So(doc.Equal(mustParse(t, string(raw))), ShouldBeTrue)
			}
		})
	})

	Convey("Given a $ref whose value is not a string", t, func() {
		fsys := fstest.MapFS{
			"odd.json": file(`{"$ref": {"nested": true}, "other": 1}`),
		}

		doc, err := New(fsys).Load("odd")

		Convey("Then the mapping is walked like any other", func() {
			So(err, ShouldBeNil)
			So(doc.Len(), ShouldEqual, 2)
		})
	})

	Convey("Given a reference with a JSON pointer fragment", t, func() {
		fsys := fstest.MapFS{
			"main.json":   file(`{"status": {"$ref": "common.json#/definitions/status"}}`),
			"common.json": file(`{"definitions": {"status": {"type": "string", "enum": ["healthy", "unhealthy"]}}}`),
		}

		doc, err := New(fsys).Load("main")

		Convey("Then only the pointed-to part is inlined", func() {
			So(err, ShouldBeNil)
			So(doc.Equal(mustParse(t, `{"status": {"type": "string", "enum": ["healthy", "unhealthy"]}}`)), ShouldBeTrue)
		})
	})

	Convey("Given a missing schema", t, func() {
		_, err := New(fstest.MapFS{}).Load("dag/missing")

		Convey("Then NotFound is returned", func() {
			So(errs.Is(err, errs.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "dag/missing.json")
		})
	})

	Convey("Given a reference to a missing file", t, func() {
		fsys := fstest.MapFS{"a.json": file(`{"x": {"$ref": "gone.json"}}`)}
		_, err := New(fsys).Load("a")

		Convey("Then NotFound is returned", func() {
			So(errs.KindOf(err), ShouldEqual, errs.KindNotFound)
		})
	})

	Convey("Given a reference escaping the root", t, func() {
		fsys := fstest.MapFS{"a.json": file(`{"x": {"$ref": "../../etc/passwd"}}`)}
		_, err := New(fsys).Load("a")

		Convey("Then NotFound is returned", func() {
			So(errs.KindOf(err), ShouldEqual, errs.KindNotFound)
		})
	})

	Convey("Given a schema that is not valid JSON", t, func() {
		fsys := fstest.MapFS{"bad.json": file("{\"type\": }")}
		_, err := New(fsys).Load("bad")

		Convey("Then Malformed names the file and position", func() {
			So(errs.Is(err, errs.ErrMalformed), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "bad.json")
			So(err.Error(), ShouldContainSubstring, "line 1")
		})
	})
}

func TestLoadAll(t *testing.T) {
	Convey("Given two schemas", t, func() {
		fsys := fstest.MapFS{
			"a.json": file(`{"title": "a"}`),
			"b.json": file(`{"title": "b"}`),
		}

		docs, err := New(fsys).LoadAll("a", "b")

		So(err, ShouldBeNil)
		So(docs, ShouldHaveLength, 2)

		_, err = New(fsys).LoadAll("a", "c")
		So(errs.KindOf(err), ShouldEqual, errs.KindNotFound)
	})
}

func TestDefaultSchemas(t *testing.T) {
	names := []string{
		"dag/dag", "dag/dag_details", "dag/dag_collection", "dag/dag_run",
		"dag/dag_run_collection", "dag/dag_source", "dag/task_instance",
		"dag/task_instance_collection", "dag/task_instance_tries",
		"dag/task_instance_try_details", "dag/task_instance_log",
		"monitor/health", "variable/variable",
	}

	Convey("Given the embedded Airflow schemas", t, func() {
		resolver := Default(WithStrictCycles())

		for _, name := range names {
			doc, err := resolver.Load(name)

			Convey("Then "+name+" is self-contained", func() {
				So(err, ShouldBeNil)
				So(doc.Kind(), ShouldEqual, types.Object)
				So(hasLocalRef(doc), ShouldBeFalse)
			})
		}
	})
}
