package models

// Aggregation selects the statistic computed by GetStatistics.
type Aggregation string

const (
	AggCount Aggregation = "count"
	AggSum   Aggregation = "sum"
	AggAvg   Aggregation = "avg"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
)

// ValidAggregations is the closed set of supported aggregations.
var ValidAggregations = map[Aggregation]bool{
	AggCount: true, AggSum: true, AggAvg: true, AggMin: true, AggMax: true,
}

// StatisticsRequest describes one aggregation over a table.
// Column is required for every aggregation except count.
type StatisticsRequest struct {
	Aggregation Aggregation `json:"aggregation"`
	Column      string      `json:"column,omitempty"`
	GroupBy     string      `json:"group_by,omitempty"`
	Filters     Filters     `json:"filters,omitempty"`
	Limit       int         `json:"limit,omitempty"`
}

// GroupAggregate is one group's aggregate value.
type GroupAggregate struct {
	Key   any
	Value float64
}

// StatisticsResult is the outcome of one aggregation. For grouped requests
// Groups is populated; otherwise Value holds the single aggregate.
// Truncated is set when the in-memory fallback hit its fetch limit, in
// which case the result covers only the fetched subset.
type StatisticsResult struct {
	Aggregation Aggregation
	Column      string
	GroupBy     string
	Value       float64
	Groups      []GroupAggregate
	Truncated   bool
}

// Data shapes the result for the tool-response envelope: grouped results
// become a row list keyed by the group column, ungrouped results a single
// object.
func (r *StatisticsResult) Data() any {
	if r.GroupBy != "" {
		rows := make([]map[string]any, 0, len(r.Groups))
		for _, g := range r.Groups {
			rows = append(rows, map[string]any{
				r.GroupBy:             g.Key,
				string(r.Aggregation): g.Value,
			})
		}
		if r.Truncated {
			return map[string]any{"groups": rows, "truncated": true}
		}
		return rows
	}

	out := map[string]any{
		"aggregation":          string(r.Aggregation),
		string(r.Aggregation): r.Value,
	}
	if r.Column != "" {
		out["column"] = r.Column
	}
	if r.Truncated {
		out["truncated"] = true
	}
	return out
}
