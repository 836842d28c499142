package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"alfredoptarigan/cv-align/internal/models"
)

type ParseOutcome string

const (
	ParseOutcomeParsed          ParseOutcome = "parsed"
	ParseOutcomePartiallyParsed ParseOutcome = "partially_parsed"
	ParseOutcomeFailed          ParseOutcome = "failed"
)

// ScoreTolerance is the largest accepted gap between the reported ATS score
// and the weighted sum of the reported per-criterion scores.
const ScoreTolerance = 5

// ParseResult is the outcome of decoding one model answer. Record is always
// usable; Missing names the labels that could not be found.
type ParseResult struct {
	Outcome   ParseOutcome
	Record    models.EvaluationRecord
	Missing   []string
	Breakdown map[string]int
}

var (
	headerPattern = regexp.MustCompile(`^[ \t>]*\*\*([^*\n]+)\*\*:(.*)$`)
	digitsPattern = regexp.MustCompile(`\d+`)
)

// ParseOutput decodes the model's free-text answer. It never panics and
// never fails: unexpected errors become an error-eligibility record.
func ParseOutput(raw string) (result ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failedParse(fmt.Sprintf("%v", r))
		}
	}()

	doc := newLabeledText(raw)

	if isNotEligible(raw, doc) {
		return parseNotEligible(doc)
	}
	return parseEligible(doc)
}

func parseNotEligible(doc *labeledText) ParseResult {
	var missing []string

	name, ok := doc.field(LabelApplicantName)
	if !ok {
		missing = append(missing, LabelApplicantName)
	}
	reason, ok := doc.field(LabelReason)
	if !ok || reason == "" {
		missing = append(missing, LabelReason)
		reason = models.NotSpecified
	}

	rec := models.EvaluationRecord{
		CandidateName: name,
		Eligibility:   models.EligibilityNotEligible,
		Reason:        strings.TrimSuffix(reason, "."),
	}
	rec.Normalize()

	return ParseResult{Outcome: outcomeFor(missing), Record: rec, Missing: missing}
}

func parseEligible(doc *labeledText) ParseResult {
	var missing []string
	found := 0

	text := func(label, fallback string) string {
		v, ok := doc.field(label)
		if !ok {
			missing = append(missing, label)
			return fallback
		}
		found++
		if v == "" {
			return fallback
		}
		return v
	}

	rec := models.EvaluationRecord{
		CandidateName: text(LabelApplicantName, ""),
		Eligibility:   models.EligibilityEligible,
		CGPA:          text(LabelCGPA, models.NotSpecified),
		Degree:        text(LabelDegree, models.NotSpecified),
		Course:        text(LabelCourse, models.NotSpecified),
	}

	if v, ok := doc.field(LabelATSScore); ok {
		found++
		if score, ok := firstInt(v); ok {
			rec.ATSScore = score
		} else {
			missing = append(missing, LabelATSScore)
		}
	} else {
		missing = append(missing, LabelATSScore)
	}

	bullets := func(label string) []string {
		lines, ok := doc.section(label)
		if !ok {
			missing = append(missing, label)
			return []string{}
		}
		found++
		return bulletItems(lines)
	}
	rec.Strengths = bullets(LabelStrengths)
	rec.Weaknesses = bullets(LabelWeaknesses)

	block := func(label string) string {
		lines, ok := doc.section(label)
		if !ok {
			missing = append(missing, label)
			return ""
		}
		found++
		return strings.Join(lines, "\n")
	}
	rec.Feedback = block(LabelFeedback)
	rec.DetailedFeedback = block(LabelDetailedFeedback)

	if found == 0 {
		return failedParse("no recognizable evaluation fields in model output")
	}

	rec.Normalize()

	result := ParseResult{Outcome: outcomeFor(missing), Record: rec, Missing: missing}
	if lines, ok := doc.section(LabelScoreBreakdown); ok {
		result.Breakdown = parseBreakdown(lines)
	}
	return result
}

func failedParse(reason string) ParseResult {
	rec := models.EvaluationRecord{
		CandidateName: "Error parsing CV",
		Eligibility:   models.EligibilityError,
		Reason:        "Failed to parse AI output: " + reason,
	}
	rec.Normalize()
	return ParseResult{Outcome: ParseOutcomeFailed, Record: rec}
}

func outcomeFor(missing []string) ParseOutcome {
	if len(missing) > 0 {
		return ParseOutcomePartiallyParsed
	}
	return ParseOutcomeParsed
}

func isNotEligible(raw string, doc *labeledText) bool {
	if strings.Contains(raw, NotEligibleMarker) {
		return true
	}
	v, ok := doc.field(LabelEligibility)
	return ok && strings.Contains(strings.ToLower(v), "not eligible")
}

// ScoreCheck compares the reported ATS score with the weighted sum of the
// per-criterion scores.
type ScoreCheck struct {
	Available  bool
	Reported   int
	Computed   float64
	Consistent bool
}

// CheckScore recomputes the weighted total when every criterion was reported.
func CheckScore(reported int, breakdown map[string]int) ScoreCheck {
	check := ScoreCheck{Reported: reported, Consistent: true}

	var total float64
	for _, c := range ScoringCriteria {
		score, ok := breakdown[c.Name]
		if !ok {
			return check
		}
		total += float64(score) * c.Weight
	}

	check.Available = true
	check.Computed = total
	check.Consistent = math.Abs(float64(reported)-total) <= ScoreTolerance
	return check
}

func parseBreakdown(lines []string) map[string]int {
	scores := make(map[string]int)
	for _, item := range bulletItems(lines) {
		name, value, ok := strings.Cut(item, ":")
		if !ok {
			continue
		}
		score, ok := firstInt(value)
		if !ok {
			continue
		}
		if c, ok := matchCriterion(name); ok {
			scores[c] = clampScore(score)
		}
	}
	return scores
}

func matchCriterion(name string) (string, bool) {
	name = strings.ToLower(strings.Trim(strings.TrimSpace(name), "*"))
	for _, c := range ScoringCriteria {
		if strings.ToLower(c.Name) == name {
			return c.Name, true
		}
	}
	return "", false
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func firstInt(s string) (int, bool) {
	m := digitsPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return v, true
}

func bulletItems(lines []string) []string {
	items := []string{}
	for _, line := range lines {
		for _, prefix := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, prefix) {
				if item := strings.TrimSpace(strings.TrimPrefix(line, prefix)); item != "" {
					items = append(items, item)
				}
				break
			}
		}
	}
	return items
}

// labeledText indexes the "**Label**: value" header lines of a model answer.
type labeledText struct {
	lines   []string
	headers map[string]int
	values  map[string]string
}

func newLabeledText(raw string) *labeledText {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")

	doc := &labeledText{
		lines:   lines,
		headers: make(map[string]int),
		values:  make(map[string]string),
	}
	for i, line := range lines {
		m := headerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label := strings.TrimSpace(m[1])
		if _, seen := doc.headers[label]; seen {
			continue
		}
		doc.headers[label] = i
		doc.values[label] = strings.TrimSpace(m[2])
	}
	return doc
}

// field returns the text following a label on its own line.
func (d *labeledText) field(label string) (string, bool) {
	v, ok := d.values[label]
	return v, ok
}

// section returns the trimmed non-blank lines between a label and the next
// label header. Inline text on the label line is the first entry.
func (d *labeledText) section(label string) ([]string, bool) {
	start, ok := d.headers[label]
	if !ok {
		return nil, false
	}

	var out []string
	if inline := d.values[label]; inline != "" {
		out = append(out, inline)
	}
	for _, line := range d.lines[start+1:] {
		if headerPattern.MatchString(line) {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		out = append(out, line)
	}
	return out, true
}
