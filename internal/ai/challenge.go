package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skilltrail/skilltrail/internal/model"
)

const gradeSystem = `You are a strict evaluator. Return ONLY JSON like:
{ "passed": boolean, "feedback": "short explanation" }`

const specSystem = `You are an expert AI tutor creating node-specific challenge requirements.
Return ONLY JSON like:
{
  "requirements": ["...","...","..."],
  "rubric": {
    "min_sentences": number,
    "require_example": true|false,
    "key_points": ["...", "..."]
  }
}
Keep requirements 3-6 bullet points, concrete, and directly tied to the provided tasks.`

// GradeRequest carries a challenge answer for review.
type GradeRequest struct {
	NodeID string
	Title  string
	Answer string
	Model  string
	Rubric *model.Rubric
}

// GradeResult is the reviewer's verdict.
type GradeResult struct {
	Passed   bool
	Feedback string
}

// GradeChallenge submits an answer for review against the node's rubric.
// When the rubric leaves a criterion unset, the evaluator defaults to a
// minimum of three sentences with an example required. A reply the model
// mangles grades as not passed rather than erroring, so a flaky model can
// never hand out an unearned pass.
func (c *Client) GradeChallenge(ctx context.Context, req GradeRequest) (GradeResult, error) {
	if !c.enabled {
		return GradeResult{}, fmt.Errorf("challenge review requires an API key; run 'st config init' to set one")
	}
	if strings.TrimSpace(req.Answer) == "" {
		return GradeResult{Passed: false, Feedback: "Empty answer."}, nil
	}
	if req.Model == "" {
		req.Model = model.DefaultAssistantModel
	}

	minSentences := 3
	requireExample := true
	var keyPoints []string
	if req.Rubric != nil {
		if req.Rubric.MinSentences != nil {
			minSentences = *req.Rubric.MinSentences
		}
		if req.Rubric.RequireExample != nil {
			requireExample = *req.Rubric.RequireExample
		}
		keyPoints = req.Rubric.KeyPoints
	}

	rubricLines := []string{
		fmt.Sprintf("Minimum sentences: %d", minSentences),
		fmt.Sprintf("Require example: %t", requireExample),
	}
	if len(keyPoints) > 0 {
		rubricLines = append(rubricLines, "Key points to hit: "+strings.Join(keyPoints, ", "))
	}

	user := fmt.Sprintf("Evaluate the answer for node '%s' (%s).\nRubric:\n%s\n\nAnswer:\n%s",
		req.NodeID, req.Title, strings.Join(rubricLines, "\n"), req.Answer)

	text, err := c.complete(ctx, req.Model, gradeSystem, user, 0.2)
	if err != nil {
		return GradeResult{}, fmt.Errorf("challenge review: %w", err)
	}

	var reply struct {
		Passed   bool   `json:"passed"`
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &reply); err != nil {
		c.logger.Printf("Grade reply unparseable, treating as not passed")
		return GradeResult{Passed: false, Feedback: "The reviewer returned an unreadable verdict; try submitting again."}, nil
	}
	if reply.Feedback == "" {
		reply.Feedback = "No feedback"
	}
	return GradeResult{Passed: reply.Passed, Feedback: reply.Feedback}, nil
}

// SpecRequest asks for tailored challenge requirements for a node.
type SpecRequest struct {
	Title string
	Tasks []string
	Level string
	Model string
}

// SpecResult is a generated challenge specification.
type SpecResult struct {
	Requirements []string
	Rubric       model.Rubric
}

// GenerateChallengeSpec produces node-specific requirements and a grading
// rubric. Missing pieces of the reply fall back to generic requirements so
// the caller always gets something usable.
func (c *Client) GenerateChallengeSpec(ctx context.Context, req SpecRequest) (SpecResult, error) {
	if !c.enabled {
		return GenericSpec(), nil
	}
	if req.Level == "" {
		req.Level = "beginner"
	}
	if req.Model == "" {
		req.Model = model.DefaultAssistantModel
	}

	userJSON, err := json.Marshal(map[string]any{
		"title": req.Title,
		"level": req.Level,
		"tasks": req.Tasks,
	})
	if err != nil {
		return SpecResult{}, fmt.Errorf("failed to encode spec request: %w", err)
	}

	text, err := c.complete(ctx, req.Model, specSystem, string(userJSON), 0.3)
	if err != nil {
		return SpecResult{}, fmt.Errorf("challenge spec: %w", err)
	}

	var reply struct {
		Requirements []string `json:"requirements"`
		Rubric       struct {
			MinSentences   *int     `json:"min_sentences"`
			RequireExample *bool    `json:"require_example"`
			KeyPoints      []string `json:"key_points"`
		} `json:"rubric"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &reply); err != nil {
		c.logger.Printf("Spec reply unparseable, using generic requirements")
		return GenericSpec(), nil
	}

	res := SpecResult{
		Requirements: reply.Requirements,
		Rubric: model.Rubric{
			MinSentences:   reply.Rubric.MinSentences,
			RequireExample: reply.Rubric.RequireExample,
			KeyPoints:      reply.Rubric.KeyPoints,
		},
	}
	if len(res.Requirements) == 0 {
		res.Requirements = GenericSpec().Requirements
	}
	return res, nil
}

// GenericSpec is the requirements set used when generation is unavailable.
func GenericSpec() SpecResult {
	return SpecResult{
		Requirements: []string{
			"Explain the concept clearly.",
			"Provide a concrete example.",
		},
	}
}
