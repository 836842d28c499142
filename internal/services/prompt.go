package services

import (
	"fmt"
	"strings"
)

// Field labels shared by the evaluation prompt and the output parser.
// Changing one side without the other breaks parsing.
const (
	LabelApplicantName    = "Applicant Name"
	LabelEligibility      = "Eligibility"
	LabelReason           = "Reason"
	LabelCGPA             = "College CGPA/Percentage"
	LabelDegree           = "Degree"
	LabelCourse           = "Course/Major"
	LabelATSScore         = "ATS Score"
	LabelStrengths        = "Strengths"
	LabelWeaknesses       = "Weaknesses"
	LabelFeedback         = "Feedback"
	LabelDetailedFeedback = "Detailed Feedback"
	LabelScoreBreakdown   = "Score Breakdown"

	NotEligibleMarker = "**Eligibility**: Candidate is not eligible"
)

// ScoringCriterion is one weighted term of the ATS score.
type ScoringCriterion struct {
	Name   string
	Weight float64
}

// ScoringCriteria lists the weighted terms in prompt order. Weights sum to 1.
var ScoringCriteria = []ScoringCriterion{
	{Name: "Skill Match", Weight: 0.30},
	{Name: "Relevant Experience", Weight: 0.25},
	{Name: "Education", Weight: 0.10},
	{Name: "Certifications or Courses", Weight: 0.05},
	{Name: "Soft Skills", Weight: 0.10},
	{Name: "Projects and Achievements", Weight: 0.10},
	{Name: "Formatting & Professionalism", Weight: 0.05},
	{Name: "Customization to Job Role", Weight: 0.05},
}

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildATSEvaluationPrompt renders the fixed evaluation template around the
// retrieved résumé context and the job description.
func (pb *PromptBuilder) BuildATSEvaluationPrompt(cvContext, jobDescription string) string {
	return strings.NewReplacer(
		"{context}", strings.TrimSpace(cvContext),
		"{input}", strings.TrimSpace(jobDescription),
	).Replace(atsEvaluationTemplate)
}

// FormatRAGContext concatenates retrieved chunks into the résumé context block.
func FormatRAGContext(results []ScoredChunk) string {
	if len(results) == 0 {
		return "No relevant context found."
	}

	parts := make([]string, 0, len(results))
	for _, result := range results {
		parts = append(parts, strings.TrimSpace(result.Text))
	}

	return strings.Join(parts, "\n\n")
}

func scoreBreakdownLines() string {
	lines := make([]string, 0, len(ScoringCriteria))
	for _, c := range ScoringCriteria {
		lines = append(lines, fmt.Sprintf("- %s: [0-100]", c.Name))
	}
	return strings.Join(lines, "\n")
}

var atsEvaluationTemplate = `You are an experienced HR and recruitment assistant tasked with evaluating a candidate's CV against a provided job description to determine their eligibility and suitability for the role. Your analysis must be fair, objective, and based solely on the CV and job description.

**Task**:
1. Extract the **applicant's name**, **CGPA/percentage in college**, **degree**, and **course/major** from the CV's education section.
2. Check the **eligibility criteria** explicitly stated in the job description (e.g., required experience, specific skills, education, certifications).
   - If the candidate does not meet *any* eligibility criterion, return only:
     ` + "```" + `
     **Applicant Name**: [Name]
     **Eligibility**: Candidate is not eligible.
     **Reason**: [Specify which criterion is not met].
     ` + "```" + `
   - If all eligibility criteria are met, proceed with the full evaluation.
3. For eligible candidates, provide:
   - A **score out of 100** for suitability.
   - **Two strengths**, each in one concise sentence (minimal words).
   - **Two weaknesses**, each in one concise sentence (minimal words).
   - A **feedback paragraph** (three lines, 2-3 concise sentences) for recruiters, stating if the candidate is eligible and suitable for the role.

**Scoring Criteria** (total 100%):
- **Skill Match (30%)**: Align technical/soft skills with job requirements.
- **Relevant Experience (25%)**: Assess professional, internship, or project experience.
- **Education (10%)**: Check relevant degrees or academic performance.
- **Certifications or Courses (5%)**: Verify relevant certifications/coursework.
- **Soft Skills (10%)**: Evaluate implied/explicit soft skills (e.g., teamwork).
- **Projects and Achievements (10%)**: Assess relevant projects/awards.
- **Formatting & Professionalism (5%)**: Evaluate CV clarity and presentation.
- **Customization to Job Role (5%)**: Check tailoring to job requirements.

**Instructions**:
- **Extraction**:
  - Identify the applicant's name from the first few lines of the CV (likely in the header or personal details section). If not found, note as 'Not specified'.
  - Extract CGPA or percentage from the college education entry (e.g., B.Tech, undergraduate degree). Look for patterns like 'CGPA: X', 'X (Current)', or 'X%'. If both are present, report CGPA; if none, note as 'Not specified'.
  - Extract the degree (e.g., B.Tech, B.Sc.) from the education section, often in a table or line starting with 'B.' or 'Bachelor'. If ongoing (e.g., '2022-Present'), note the degree with 'In progress'. If not found, note as 'Not specified'.
  - Extract the course/major (e.g., Mathematics and Computing, Computer Science) from the education section, typically after the degree (e.g., 'B.Tech - Mathematics and Computing'). If not specified, note as 'Not specified'.
- **Eligibility Check**:
  - Identify all explicit eligibility criteria in the job description (e.g., specific skills like 'JavaScript/React.js', experience level like '1-3 years', specific degrees).
  - Compare CV content to each criterion.
  - If *any* criterion is not met (e.g., missing a required skill like Docker, insufficient experience), halt evaluation and return the ineligibility message.
- **Scoring (if eligible)**:
  - For each criterion, assign a score (0-100%):
    - **Full Match**: Explicitly meets requirements (e.g., skill used in projects) -> 80-100%.
    - **Partial Match**: Implied/limited evidence (e.g., coursework, less experience) -> 40-79%.
    - **No Match**: No evidence -> 0-39%.
  - Calculate total score:
    ` + "```" + `
    Total Score = (Skill Match x 0.3) + (Relevant Experience x 0.25) + (Education x 0.1) + (Certifications/Courses x 0.05) + (Soft Skills x 0.1) + (Projects/Achievements x 0.1) + (Formatting x 0.05) + (Customization x 0.05)
    ` + "```" + `
  - If a criterion is not applicable (e.g., no certifications required), assign 50%.
- **Output**:
  - Use only CV content in <context> tags and the job description below.
  - Do not assume skills/experience not mentioned unless strongly implied.
  - If CV or job description is incomplete, note limitations in feedback (if eligible).
  - Strengths/weaknesses must be one sentence each, using minimal words.
  - Feedback must be three bullet points (2-3 sentences total), stating eligibility and suitability.
  - Detailed feedback must be 8-9 bullet points (8-9 sentences, 150-200 words) assessing eligibility, suitability, strengths, gaps, and improvement suggestions.
  - The score breakdown lists the per-criterion score (0-100) you used to compute the ATS Score.

- **Only show the information requested in the output sections below; don't show anything extra.**
- **Don't display name, course, degree and CGPA on the same line; use separate lines.**

**Output Format** (if eligible):
` + "```" + `
**Applicant Name**: [Name]

**College CGPA/Percentage**: [CGPA or Percentage]

**Degree**: [Degree]

**Course/Major**: [Course or Major]

**ATS Score**: [Score]/100

**Strengths**:
- [Strength 1, one concise sentence]
- [Strength 2, one concise sentence but focusing on a specific thing]

**Weaknesses**:
- [Weakness 1, one concise sentence]
- [Weakness 2, one concise sentence but focusing on a specific thing]

**Feedback**:
- [concise Sentence on eligibility]
- [concise Sentence on suitability]
- [concise Sentence with rationale or improvement suggestion]

**Detailed Feedback**:
- [Sentence 1 on eligibility]
- [Sentence 2 on suitability]
- [Sentence 3 on strength 1]
- [Sentence 4 on strength 2]
- [Sentence 5 on weakness 1]
- [Sentence 6 on weakness 2]
- [Sentence 7 on additional observation, e.g., education or formatting]
- [Sentence 8 on improvement suggestion 1]
- [Sentence 9 on improvement suggestion 2]

**Score Breakdown**:
` + scoreBreakdownLines() + `
` + "```" + `

**Output Format** (if not eligible):
` + "```" + `
**Applicant Name**: [Name]

**Eligibility**: Candidate is not eligible.
**Reason**: [Specify unmet criterion]
` + "```" + `

---
**Candidate CV**:
<context>
{context}
</context>

**Job Description**:
{input}
`
