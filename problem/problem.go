// Package problem models the Competitive Companion payload: the problem
// metadata a judge page exports, plus the helpers that turn it into
// filesystem-friendly names.
package problem

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ccfetch/ccfetch/listener"
)

// Test is one sample test case attached to a problem.
type Test struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Batch identifies the push group a problem arrived in.
type Batch struct {
	ID   string `json:"id"`
	Size int    `json:"size"`
}

// Problem is the decoded payload for a single problem.
type Problem struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	URL         string `json:"url"`
	TimeLimit   int    `json:"timeLimit"`   // milliseconds
	MemoryLimit int    `json:"memoryLimit"` // megabytes
	Batch       Batch  `json:"batch"`
	Tests       []Test `json:"tests"`
}

// FromRecord decodes a listener record into a Problem.
func FromRecord(rec listener.Record) (Problem, error) {
	var p Problem
	if err := json.Unmarshal(rec.Body, &p); err != nil {
		return Problem{}, fmt.Errorf("problem: decode record: %w", err)
	}
	return p, nil
}

// ID derives the short problem identifier from the name: the first
// whitespace-separated token, trimmed at the first dot. "A. Theatre Square"
// becomes "A".
func (p Problem) ID() string {
	fields := strings.Fields(p.Name)
	if len(fields) == 0 {
		return ""
	}
	return strings.SplitN(fields[0], ".", 2)[0]
}

type judge struct {
	name   string
	find   *regexp.Regexp
	prefix *regexp.Regexp
}

func newJudge(name string) judge {
	return judge{
		name:   name,
		find:   regexp.MustCompile(`(?i)` + name),
		prefix: regexp.MustCompile(`(?i)^` + name + `\s*-?\s*`),
	}
}

// judges are the online judges whose group names get normalized into a
// directory prefix. Order matters: the first match wins.
var judges = []judge{
	newJudge("Codeforces"),
	newJudge("AtCoder"),
	newJudge("CodeChef"),
	newJudge("SPOJ"),
	newJudge("UVA"),
	newJudge("Kattis"),
	newJudge("VJudge"),
}

// FormatGroup normalizes a judge group name into a directory path:
// "Codeforces - Round 900" becomes "Codeforces/Round 900". Groups from
// unknown judges are returned unchanged apart from surrounding spaces and
// dashes.
func FormatGroup(group string) string {
	group = strings.Trim(group, " -")

	for _, j := range judges {
		if j.find.MatchString(group) {
			contest := j.prefix.ReplaceAllString(group, "")
			return j.name + "/" + contest
		}
	}
	return group
}

// Dir returns the contest directory for the problem, derived from its group.
func (p Problem) Dir() string {
	return FormatGroup(p.Group)
}
