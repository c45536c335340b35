package model

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultDetailsFor seeds the starter details for a roadmap node: three
// resource links, a three-item checklist, and the default challenge prompt.
// The challenge requirements and rubric stay empty until the challenge-spec
// generator fills them.
func DefaultDetailsFor(title string) *NodeDetails {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Topic"
	}
	q := url.QueryEscape(title)

	return &NodeDetails{
		Resources: []Resource{
			{ID: "r1", Kind: ResourceDoc, Title: "Wikipedia: " + title,
				URL: "https://en.wikipedia.org/wiki/" + q},
			{ID: "r2", Kind: ResourceVideo, Title: fmt.Sprintf("YouTube: %s tutorial", title),
				URL: "https://www.youtube.com/results?search_query=" + q + "+tutorial"},
			{ID: "r3", Kind: ResourceRepo, Title: "GitHub search: " + title,
				URL: "https://github.com/search?q=" + q},
		},
		Tasks: []NodeTask{
			{ID: "t1", Text: fmt.Sprintf("Skim the Wikipedia page and note 5 key terms for %q.", title)},
			{ID: "t2", Text: fmt.Sprintf("Watch a 10-20 min video tutorial on %q.", title)},
			{ID: "t3", Text: fmt.Sprintf("Build a tiny demo or write a 15-line example related to %q.", title)},
		},
		Challenge: Challenge{
			ID: "c1",
			Prompt: fmt.Sprintf("In 3-6 sentences, explain the core idea of %q and provide a concrete "+
				"example (with code or pseudo-code if applicable).", title),
		},
	}
}

// Eligible reports whether a node may transition to done: every checklist
// task finished and the challenge passed. Nil details are never eligible
// (the default checklist starts unfinished).
func Eligible(details *NodeDetails) bool {
	if details == nil {
		return false
	}
	for _, t := range details.Tasks {
		if !t.Done {
			return false
		}
	}
	return details.Challenge.Passed
}
