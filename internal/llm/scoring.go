package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ScoreResult is the structured outcome of matching one resume against a
// job's required skills.
type ScoreResult struct {
	Score         int      `json:"score"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
	Reason        string   `json:"reason"`
}

// Scorer asks the generation capability for a structured skill-match score.
type Scorer struct {
	generator Generator
}

func NewScorer(generator Generator) *Scorer {
	return &Scorer{generator: generator}
}

// Score evaluates resumeText against the job's required skills. The model
// is instructed to treat related technologies and common aliases as
// equivalent and to count skills demonstrated in narrative experience, not
// only in a literal skills list. The response is validated against the
// expected shape; if the raw response isn't a clean JSON object the first
// well-formed object embedded in it is recovered before validation.
func (s *Scorer) Score(ctx context.Context, jobRole string, requiredSkills []string, resumeText string) (*ScoreResult, error) {
	prompt := buildScoringPrompt(jobRole, requiredSkills, resumeText)

	response, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to get scoring response: %w", err)
	}

	result, err := parseScoreResult(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}

	return result, nil
}

func buildScoringPrompt(jobRole string, requiredSkills []string, resumeText string) string {
	var sb strings.Builder

	sb.WriteString("You are an expert technical recruiter evaluating a resume against a job's required skills.\n\n")
	sb.WriteString(fmt.Sprintf("## JOB ROLE\n%s\n\n", jobRole))
	sb.WriteString("## REQUIRED SKILLS\n")
	for _, skill := range requiredSkills {
		sb.WriteString(fmt.Sprintf("- %s\n", skill))
	}
	sb.WriteString("\n## RESUME\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n\n## INSTRUCTIONS\n")
	sb.WriteString("Treat closely related technologies and common abbreviations or aliases as equivalent matches (e.g. JS and JavaScript, Postgres and PostgreSQL, React and ReactJS).\n")
	sb.WriteString("Count skills demonstrated in project or experience descriptions, not only those in an explicit skills list.\n")
	sb.WriteString("Compute score as (matched skills / total required skills) * 100, rounded to the nearest integer.\n")
	sb.WriteString("Respond with only a JSON object of this shape:\n")
	sb.WriteString(`{"score": 0, "matchedSkills": [], "missingSkills": [], "reason": "one short paragraph"}`)

	return sb.String()
}

func parseScoreResult(response string) (*ScoreResult, error) {
	raw := response

	var result ScoreResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// fall back to the first JSON object embedded in free text
		extracted, exErr := ExtractJSONObject(raw)
		if exErr != nil {
			return nil, exErr
		}
		if err := json.Unmarshal([]byte(extracted), &result); err != nil {
			return nil, err
		}
	}

	if result.Score < 0 || result.Score > 100 {
		return nil, fmt.Errorf("score %d out of range", result.Score)
	}
	if result.MatchedSkills == nil {
		result.MatchedSkills = []string{}
	}
	if result.MissingSkills == nil {
		result.MissingSkills = []string{}
	}

	return &result, nil
}
