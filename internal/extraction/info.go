package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/recruitflow/recruitflow/internal/llm"
	"go.uber.org/zap"
)

// UnknownCandidate is the placeholder used when no usable name is found.
const UnknownCandidate = "Unknown Candidate"

var (
	emailRe    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe    = regexp.MustCompile(`\+?\d[\d\s().\-]{7,14}\d`)
	rejectRe   = regexp.MustCompile(`(?i)\b(resume|curriculum|vitae|http)\b`)
	separators = strings.NewReplacer("|", " ", "•", " ", "·", " ", "\t", " ")
)

// Info is the structured candidate contact data pulled out of resume text.
type Info struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// InfoExtractor pulls name/email/phone from resume text. The model is the
// primary path; a deterministic regex and heading scan backfills any field
// the model left empty. Extract never fails: worst case it returns the
// placeholder name and nil contact fields.
type InfoExtractor struct {
	generator llm.Generator
}

func NewInfoExtractor(generator llm.Generator) *InfoExtractor {
	return &InfoExtractor{generator: generator}
}

func (e *InfoExtractor) Extract(ctx context.Context, resumeText string) Info {
	info := Info{}

	if e.generator != nil {
		if extracted, err := e.extractWithModel(ctx, resumeText); err == nil {
			info = extracted
		} else {
			zap.S().Named("extraction").Warnf("model info extraction failed, using fallback: %v", err)
		}
	}

	// backfill is applied regardless of whether the model call succeeded
	if info.Email == nil {
		if email := emailRe.FindString(resumeText); email != "" {
			info.Email = &email
		}
	}
	if info.Phone == nil {
		if phone := phoneRe.FindString(resumeText); phone != "" {
			info.Phone = &phone
		}
	}
	if info.Name == "" {
		info.Name = nameFromHeading(resumeText)
	}

	return info
}

func (e *InfoExtractor) extractWithModel(ctx context.Context, resumeText string) (Info, error) {
	prompt := fmt.Sprintf(
		"Extract the candidate's contact details from the resume below.\n"+
			"Respond with only a JSON object: {\"name\": \"\", \"email\": null, \"phone\": null}.\n"+
			"Use null for any field not present.\n\nRESUME:\n%s", resumeText)

	response, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return Info{}, err
	}

	raw := response
	var info Info
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		extracted, exErr := llm.ExtractJSONObject(raw)
		if exErr != nil {
			return Info{}, exErr
		}
		if err := json.Unmarshal([]byte(extracted), &info); err != nil {
			return Info{}, err
		}
	}

	if info.Email != nil && *info.Email == "" {
		info.Email = nil
	}
	if info.Phone != nil && *info.Phone == "" {
		info.Phone = nil
	}

	return info, nil
}

// nameFromHeading scans the first few non-blank lines for something that
// looks like a person's name.
func nameFromHeading(resumeText string) string {
	seen := 0
	for _, line := range strings.Split(resumeText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seen++
		if seen > 5 {
			break
		}

		candidate := strings.Join(strings.Fields(separators.Replace(line)), " ")
		if len(candidate) < 3 || len(candidate) > 50 {
			continue
		}
		if strings.ContainsRune(candidate, '@') {
			continue
		}
		if rejectRe.MatchString(candidate) {
			continue
		}
		runes := []rune(candidate)
		if unicode.IsDigit(runes[0]) || !unicode.IsUpper(runes[0]) {
			continue
		}
		return candidate
	}
	return UnknownCandidate
}
