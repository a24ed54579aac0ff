package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Messages the report understands.
const (
	MsgInvalidInvocation = "invalid builtin invocation"
	MsgExecFailed        = "command failed to start"
)

// LogEntry is one line of a JSON formatted log.
type LogEntry map[string]interface{}

// Field returns the named field formatted as a string, or "" if missing.
func (le LogEntry) Field(name string) string {
	v, ok := le[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var entry LogEntry
		if err := decoder.Decode(&entry); err != nil {
			return err
		}

		handler(entry)
	}
	return nil
}

func NewReport() *Report {
	return &Report{
		Levels:             NewPathCounter("level"),
		InvalidInvocations: NewPathCounter("command", "error"),
		FailedCommands:     NewPathCounter("command", "status", "error"),
	}
}

// Report summarizes a log, pulling out events that point at broken scripts.
type Report struct {
	LogEntries int `json:"log_entries"`

	Levels             *PathCounter `json:"levels"`
	InvalidInvocations *PathCounter `json:"invalid_invocations"`
	FailedCommands     *PathCounter `json:"failed_commands"`
}

func (r *Report) Update(le LogEntry) {
	r.LogEntries++
	r.Levels.Increment(le.Field("level"))

	switch le.Field("msg") {
	case MsgInvalidInvocation:
		r.InvalidInvocations.Increment(le.Field("command"), le.Field("error"))
	case MsgExecFailed:
		r.FailedCommands.Increment(le.Field("command"), le.Field("status"), le.Field("error"))
	}
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of times each tuple of strings was seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Count returns how many times the key was seen.
func (ctr *PathCounter) Count(key ...string) int {
	return ctr.internal[toKey(key...)]
}

// MarshalJSON orders the counts from most to least frequent.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
