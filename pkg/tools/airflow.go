package tools

const taskInstance = "dags/{dag_id}/dagRuns/{dag_run_id}/taskInstances/{task_id}"

var (
	dagID = Param{
		Name: "dag_id", Kind: String, In: InPath, Required: true,
		Description: "The DAG ID.",
	}
	dagRunID = Param{
		Name: "dag_run_id", Kind: String, In: InPath, Required: true,
		Description: "The DAG run ID.",
	}
	taskID = Param{
		Name: "task_id", Kind: String, In: InPath, Required: true,
		Description: "The task ID.",
	}
	tryNumber = Param{
		Name: "try_number", Kind: Integer, In: InPath, Required: true,
		Description: "The try number of the task instance.",
	}
	fields = Param{
		Name: "fields", Kind: StringList,
		Description: "List of fields to return.",
	}
	orderBy = Param{
		Name: "order_by", Kind: String,
		Description: "The field to order the results by. Prefix a field name with - to reverse the sort order.",
	}
	limit = Param{
		Name: "limit", Kind: Integer, Default: 100,
		Description: "The number of items to return (default 100).",
	}
	offset = Param{
		Name: "offset", Kind: Integer, Default: 0,
		Description: "The number of items to skip before collecting the result set (default 0).",
	}
)

func dateRange(name, label string) []Param {
	return []Param{
		{Name: name + "_gte", Kind: String, Description: "Only return objects with " + label + " greater or equal to this ISO 8601 date."},
		{Name: name + "_lte", Kind: String, Description: "Only return objects with " + label + " less or equal to this ISO 8601 date."},
	}
}

func params(groups ...[]Param) []Param {
	out := []Param{}

	for _, group := range groups {
		out = append(out, group...)
	}

	return out
}

/*
Airflow returns the tool table for the Airflow stable REST API (v1). Each
call returns a fresh slice.
*/
func Airflow() []Definition {
	return []Definition{
		{
			Name:         "get_dags",
			Description:  "Get all DAGs with optional filtering and pagination.",
			Endpoint:     "dags",
			OutputSchema: "dag/dag_collection",
			Params: []Param{
				limit, offset, orderBy,
				{Name: "tags", Kind: StringList, Description: "List of tags to filter DAGs by."},
				fields,
				{Name: "only_active", Kind: Boolean, Default: true, Description: "Only return active DAGs (default true)."},
				{Name: "paused", Kind: Boolean, Description: "Only return paused or unpaused DAGs."},
				{Name: "dag_id_pattern", Kind: String, Description: "Only return DAGs whose dag_id matches this pattern."},
			},
		},
		{
			Name:         "get_dag",
			Description:  "Get a specific DAG by its dag_id.",
			Endpoint:     "dags/{dag_id}",
			OutputSchema: "dag/dag",
			Params:       []Param{dagID, fields},
		},
		{
			Name:         "get_dag_details",
			Description:  "Get a simplified representation of a DAG including its schedule, file_token and parameters.",
			Endpoint:     "dags/{dag_id}/details",
			OutputSchema: "dag/dag_details",
			Params:       []Param{dagID, fields},
		},
		{
			Name:         "get_dag_runs",
			Description:  "Get DAG runs for a specific DAG or all DAGs. Use '~' as dag_id to retrieve runs for all DAGs.",
			Endpoint:     "dags/{dag_id}/dagRuns",
			OutputSchema: "dag/dag_run_collection",
			Params: params(
				[]Param{dagID, limit, offset},
				dateRange("execution_date", "execution date"),
				dateRange("start_date", "start date"),
				dateRange("end_date", "end date"),
				dateRange("updated_at", "update time"),
				[]Param{
					{Name: "state", Kind: StringList, Description: "DAG run states to match, e.g. queued, running, success, failed."},
					orderBy, fields,
				},
			),
		},
		{
			Name:         "get_dag_source",
			Description:  "Get the source code of a DAG using its file token. The file_token is obtained from get_dag_details response file_token attribute.",
			Endpoint:     "dagSources/{file_token}",
			OutputSchema: "dag/dag_source",
			Params: []Param{
				{Name: "file_token", Kind: String, In: InPath, Required: true, Description: "The file token returned in DAG details."},
			},
		},
		{
			Name:         "get_health",
			Description:  "Get Airflow health (metadatabase, scheduler, triggerer, dag processor) from /health.",
			Endpoint:     "health",
			OutputSchema: "monitor/health",
		},
		{
			Name:         "list_task_instances",
			Description:  "List all task instances for a specific DAG run. Use this to monitor task status, analyze performance and debug failures within a DAG run.",
			Endpoint:     "dags/{dag_id}/dagRuns/{dag_run_id}/taskInstances",
			OutputSchema: "dag/task_instance_collection",
			Params: params(
				[]Param{dagID, dagRunID, limit, offset},
				dateRange("execution_date", "execution date"),
				dateRange("start_date", "start date"),
				dateRange("end_date", "end date"),
				[]Param{
					{Name: "duration_gte", Kind: Number, Description: "Only return task instances running at least this many seconds."},
					{Name: "duration_lte", Kind: Number, Description: "Only return task instances running at most this many seconds."},
					{Name: "state", Kind: StringList, Description: "Task states to match, e.g. running, success, failed, up_for_retry."},
					{Name: "pool", Kind: StringList, Description: "Pool names to match."},
					{Name: "queue", Kind: StringList, Description: "Queue names to match."},
					orderBy, fields,
				},
			),
		},
		{
			Name:         "get_task_instance",
			Description:  "Get details of a specific task instance within a DAG run.",
			Endpoint:     taskInstance,
			OutputSchema: "dag/task_instance",
			Params:       []Param{dagID, dagRunID, taskID, fields},
		},
		{
			Name:         "get_task_instance_tries",
			Description:  "Get all tries for a specific task instance. Use this to analyze retry history and repeated failures.",
			Endpoint:     taskInstance + "/tries",
			OutputSchema: "dag/task_instance_tries",
			Params:       []Param{dagID, dagRunID, taskID, fields},
		},
		{
			Name:         "get_task_instance_try_details",
			Description:  "Get detailed information about a specific try of a task instance.",
			Endpoint:     taskInstance + "/tries/{try_number}",
			OutputSchema: "dag/task_instance_try_details",
			Params:       []Param{dagID, dagRunID, taskID, tryNumber, fields},
		},
		{
			Name:         "get_task_instance_log",
			Description:  "Get logs for a specific task instance try. Use this to debug task failures and review task output.",
			Endpoint:     taskInstance + "/logs/{try_number}",
			OutputSchema: "dag/task_instance_log",
			Params: []Param{
				dagID, dagRunID, taskID, tryNumber,
				{Name: "full_content", Kind: Boolean, Default: false, Description: "Return the full log instead of the first chunk (default false)."},
			},
		},
		{
			Name:         "get_variable",
			Description:  "Get an Airflow variable by its key.",
			Endpoint:     "variables/{variable_key}",
			OutputSchema: "variable/variable",
			Params: []Param{
				{Name: "variable_key", Kind: String, In: InPath, Required: true, Description: "The variable key."},
			},
		},
	}
}
