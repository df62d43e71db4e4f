// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/samber/oops"
)

// DefaultStatusPath is where the pipeline writes its status document.
const DefaultStatusPath = "./status/status.json"

type statusDoc struct {
	Totals   map[string]any   `json:"totals"`
	LastRuns []map[string]any `json:"last_runs"`
}

type pipelineSelfAudit struct {
	path string
}

func (pipelineSelfAudit) Key() string            { return KeyPipelineSelfAudit }
func (pipelineSelfAudit) Title() string          { return "Pipeline Self-Audit" }
func (pipelineSelfAudit) Capability() Capability { return CapPublic }

func (t pipelineSelfAudit) Render(context.Context, Filters) (View, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return View{Notes: []string{"No status.json found."}}, nil
	}
	if err != nil {
		return View{}, oops.Code(CodeStatusInvalid).With("path", t.path).Wrapf(err, "read status")
	}

	var doc statusDoc
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return View{}, oops.Code(CodeStatusInvalid).With("path", t.path).Wrapf(err, "parse status")
	}

	var view View
	if len(doc.Totals) > 0 {
		keys := sortedKeys(doc.Totals)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, cell(doc.Totals[k])})
		}
		view.Tables = append(view.Tables, Table{Caption: "Totals", Columns: []string{"Metric", "Value"}, Rows: rows})
	}
	if len(doc.LastRuns) > 0 {
		seen := map[string]any{}
		for _, run := range doc.LastRuns {
			for k := range run {
				seen[k] = nil
			}
		}
		cols := sortedKeys(seen)
		rows := make([][]string, 0, len(doc.LastRuns))
		for _, run := range doc.LastRuns {
			row := make([]string, len(cols))
			for i, c := range cols {
				if v, ok := run[c]; ok {
					row[i] = cell(v)
				}
			}
			rows = append(rows, row)
		}
		view.Tables = append(view.Tables, Table{Caption: "Last runs", Columns: cols, Rows: rows})
	}
	if len(view.Tables) == 0 {
		view.Notes = append(view.Notes, "status.json has no totals or runs.")
	}
	return view, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
