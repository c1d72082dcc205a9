package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "github.com/theapemachine/airflow-mcp/pkg/errors"
	"github.com/theapemachine/airflow-mcp/pkg/httpclient"
	"github.com/theapemachine/airflow-mcp/pkg/schema"
	"github.com/theapemachine/airflow-mcp/pkg/types"
)

func lookup(t *testing.T, name string) Definition {
	t.Helper()

	for _, def := range Airflow() {
		if def.Name == name {
			return def
		}
	}

	t.Fatalf("no tool %s", name)
	return Definition{}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		endpoint string
		query    map[string]any
	}{
		{
			name:     "defaults",
			tool:     "get_dags",
			args:     map[string]any{},
			endpoint: "dags",
			query:    map[string]any{"limit": int64(100), "offset": int64(0), "only_active": true},
		},
		{
			name: "lists are comma joined",
			tool: "get_dags",
			args: map[string]any{
				"limit":    float64(5),
				"tags":     []any{"etl", "prod"},
				"paused":   false,
				"order_by": "",
			},
			endpoint: "dags",
			query: map[string]any{
				"limit": int64(5), "offset": int64(0), "only_active": true,
				"tags": "etl,prod", "paused": false,
			},
		},
		{
			name:     "path params are escaped",
			tool:     "get_dag",
			args:     map[string]any{"dag_id": "team/etl daily"},
			endpoint: "dags/team%2Fetl%20daily",
			query:    map[string]any{},
		},
		{
			name: "nested task instance path",
			tool: "get_task_instance_log",
			args: map[string]any{
				"dag_id": "etl", "dag_run_id": "manual__2024-01-01T00:00:00+00:00",
				"task_id": "load", "try_number": float64(2), "full_content": true,
			},
			endpoint: "dags/etl/dagRuns/manual__2024-01-01T00:00:00+00:00/taskInstances/load/logs/2",
			query:    map[string]any{"full_content": true},
		},
		{
			name: "number filters",
			tool: "list_task_instances",
			args: map[string]any{
				"dag_id": "etl", "dag_run_id": "r1",
				"duration_gte": float64(1.5), "state": []any{"failed"}, "pool": "default_pool",
			},
			endpoint: "dags/etl/dagRuns/r1/taskInstances",
			query: map[string]any{
				"limit": int64(100), "offset": int64(0),
				"duration_gte": 1.5, "state": "failed", "pool": "default_pool",
			},
		},
		{
			name:     "all DAGs wildcard",
			tool:     "get_dag_runs",
			args:     map[string]any{"dag_id": "~", "unknown": "ignored"},
			endpoint: "dags/~/dagRuns",
			query:    map[string]any{"limit": int64(100), "offset": int64(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint, query, err := lookup(t, tt.tool).Expand(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.endpoint, endpoint)
			assert.Equal(t, tt.query, query)
		})
	}
}

func TestExpandInvalid(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{name: "missing path param", tool: "get_dag", args: map[string]any{}, want: "dag_id"},
		{name: "nil path param", tool: "get_dag", args: map[string]any{"dag_id": nil}, want: "dag_id"},
		{name: "empty path param", tool: "get_variable", args: map[string]any{"variable_key": ""}, want: "must not be empty"},
		{name: "fractional integer", tool: "get_dags", args: map[string]any{"limit": 1.5}, want: "limit"},
		{name: "integer above int64", tool: "get_dags", args: map[string]any{"limit": 1e19}, want: "out of range"},
		{name: "integer below int64", tool: "get_dags", args: map[string]any{"offset": -1e19}, want: "out of range"},
		{name: "integer at 2^63", tool: "get_dags", args: map[string]any{"limit": 9223372036854775808.0}, want: "limit"},
		{name: "bad boolean", tool: "get_dags", args: map[string]any{"paused": "maybe"}, want: "paused"},
		{name: "bad list item", tool: "get_dags", args: map[string]any{"tags": []any{"a", 1.0}}, want: "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := lookup(t, tt.tool).Expand(tt.args)
			require.Error(t, err)
			assert.Equal(t, errs.KindInvalidArgument, errs.KindOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAirflowTable(t *testing.T) {
	Convey("Given the Airflow tool table", t, func() {
		defs := Airflow()
		resolver := schema.Default(schema.WithStrictCycles())
		seen := map[string]bool{}

		Convey("Then every tool is unique, consistent and has a loadable schema", func() {
			So(defs, ShouldHaveLength, 12)

			for _, def := range defs {
				So(seen[def.Name], ShouldBeFalse)
				seen[def.Name] = true

				So(def.Description, ShouldNotBeBlank)

				for _, param := range def.Params {
					if param.In == InPath {
						So(def.Endpoint, ShouldContainSubstring, "{"+param.Name+"}")
					}
				}

				_, err := resolver.Load(def.OutputSchema)
				So(err, ShouldBeNil)
			}
		})

		Convey("Then mutating one table leaves the next untouched", func() {
			defs[0].Params[0].Default = 1
			So(Airflow()[0].Params[0].Default, ShouldEqual, 100)
		})
	})
}

func TestNewTool(t *testing.T) {
	Convey("Given a definition with mixed parameters", t, func() {
		tool := NewTool(lookup(t, "get_task_instance_log"))

		Convey("Then the input schema lists every parameter", func() {
			So(tool.Name, ShouldEqual, "get_task_instance_log")
			So(tool.InputSchema.Properties, ShouldContainKey, "dag_id")
			So(tool.InputSchema.Properties, ShouldContainKey, "try_number")
			So(tool.InputSchema.Properties, ShouldContainKey, "full_content")
			So(tool.InputSchema.Required, ShouldContain, "dag_id")
			So(tool.InputSchema.Required, ShouldContain, "try_number")
			So(tool.InputSchema.Required, ShouldNotContain, "full_content")
		})
	})

	Convey("Given an unknown tool name", t, func() {
		_, err := Acquire("trigger_dag")
		So(err, ShouldNotBeNil)

		tool, err := Acquire("get_health")
		So(err, ShouldBeNil)
		So(tool.Name, ShouldEqual, "get_health")
	})
}

func TestInvoke(t *testing.T) {
	Convey("Given an Airflow API", t, func() {
		var seen *http.Request

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r
			_, _ = w.Write([]byte(`{"dag_id":"etl","is_paused":false}`))
		}))
		defer srv.Close()

		client := httpclient.New(httpclient.Config{BaseURL: srv.URL + "/api/v1"})

		Convey("When get_dag is invoked", func() {
			result, err := Invoke(context.Background(), client, lookup(t, "get_dag"), map[string]any{
				"dag_id": "etl",
				"fields": []any{"dag_id", "is_paused"},
			})

			Convey("Then the expanded request is sent and the JSON returned", func() {
				So(err, ShouldBeNil)
				So(seen.URL.Path, ShouldEqual, "/api/v1/dags/etl")
				So(seen.URL.Query().Get("fields"), ShouldEqual, "dag_id,is_paused")

				id, _ := result.Get("dag_id")
				So(id.String(), ShouldEqual, `"etl"`)
			})
		})

		Convey("When a required argument is missing", func() {
			seen = nil
			_, err := Invoke(context.Background(), client, lookup(t, "get_dag"), nil)

			Convey("Then no request is made", func() {
				So(errs.Is(err, errs.ErrInvalidArgument), ShouldBeTrue)
				So(seen, ShouldBeNil)
			})
		})
	})

	Convey("Given a requester that fails", t, func() {
		_, err := Invoke(context.Background(), failing{}, lookup(t, "get_health"), nil)
		So(errs.KindOf(err), ShouldEqual, errs.KindConnectionFailure)
	})
}

type failing struct{}

func (failing) RequestJSON(
	ctx context.Context, endpoint string, opts ...httpclient.RequestOption,
) (types.Value, error) {
	return types.Value{}, errs.ConnectionFailure(endpoint, context.Canceled)
}
