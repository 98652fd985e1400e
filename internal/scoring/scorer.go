package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/fmuoria/interview-agent/internal/llm"
	"github.com/fmuoria/interview-agent/internal/models"
)

const (
	// maxAnswerChars bounds the answer text embedded in a scoring prompt
	maxAnswerChars = 6000
	// scoreWindow is how far past a criterion name the parser looks for its rating
	scoreWindow = 60
)

// SkippedSummary marks the record of a skipped question
const SkippedSummary = "Question was skipped"

var defaultScores = map[models.Criterion]int{
	models.Relevance:      7,
	models.Depth:          6,
	models.Communication:  7,
	models.Experience:     6,
	models.ProblemSolving: 6,
}

var fallbackFeedback = map[models.Criterion]string{
	models.Relevance:      "Answer addresses the question appropriately",
	models.Depth:          "Good level of detail provided",
	models.Communication:  "Clear and well-structured response",
	models.Experience:     "Demonstrates relevant background",
	models.ProblemSolving: "Shows analytical thinking",
}

var (
	experienceWords     = []string{"experience", "worked", "project", "team"}
	problemSolvingWords = []string{"problem", "solution", "approach", "method"}
)

var criterionPatterns = buildCriterionPatterns()

// Scorer evaluates interview answers, with a backend when one is available
type Scorer struct {
	backend llm.Backend
}

// NewScorer creates a new scorer instance. A nil backend scores heuristically.
func NewScorer(backend llm.Backend) *Scorer {
	return &Scorer{
		backend: backend,
	}
}

// Score evaluates an answer. It never fails: any backend problem yields the heuristic score.
func (s *Scorer) Score(ctx context.Context, question, answer, role string) models.ScoreRecord {
	answer = sanitizeUTF8(answer)

	if s == nil || s.backend == nil {
		return FallbackScore(answer)
	}

	prompt := buildScoringPrompt(question, answer, role)
	reply, err := s.backend.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("scoring backend failed, using heuristic score",
			slog.String("backend", s.backend.Name()),
			slog.Any("error", err))
		return FallbackScore(answer)
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackScore(answer)
	}

	return parseScoringReply(reply, answer)
}

// FallbackScore scores an answer from its length and keywords
func FallbackScore(answer string) models.ScoreRecord {
	words := len(strings.Fields(answer))
	lower := strings.ToLower(answer)

	communication := 5
	if words > 20 {
		communication = 8
	}
	experience := 4
	if containsAny(lower, experienceWords) {
		experience = 6
	}
	problemSolving := 5
	if containsAny(lower, problemSolvingWords) {
		problemSolving = 7
	}

	scores := map[models.Criterion]int{
		models.Relevance:      clamp(words / 5),
		models.Depth:          clamp(words / 8),
		models.Communication:  communication,
		models.Experience:     experience,
		models.ProblemSolving: problemSolving,
	}

	feedback := make(map[models.Criterion]string, len(fallbackFeedback))
	for k, v := range fallbackFeedback {
		feedback[k] = v
	}

	summary := fmt.Sprintf("Solid response with %d words. Shows understanding of the topic and provides relevant details.", words)
	return models.NewScoreRecord(scores, feedback, summary)
}

// SkippedRecord is the all-zero sentinel stored for a skipped question
func SkippedRecord() models.ScoreRecord {
	scores := make(map[models.Criterion]int, len(models.Criteria))
	for _, c := range models.Criteria {
		scores[c] = 0
	}
	return models.ScoreRecord{
		Scores:       scores,
		OverallScore: 0,
		Summary:      SkippedSummary,
	}
}

// IsSkipped reports whether rec is the skip sentinel
func IsSkipped(rec models.ScoreRecord) bool {
	if rec.Summary != SkippedSummary {
		return false
	}
	for _, c := range models.Criteria {
		if rec.Scores[c] != 0 {
			return false
		}
	}
	return true
}

// buildScoringPrompt creates the rating prompt for a single answer
func buildScoringPrompt(question, answer, role string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Evaluate this interview answer for a %s position:\n\n", role))
	sb.WriteString(fmt.Sprintf("Question: %s\n", question))
	if len(answer) > maxAnswerChars {
		sb.WriteString(fmt.Sprintf("Answer: %s\n[Answer truncated for length]\n\n", truncate(answer, maxAnswerChars)))
	} else {
		sb.WriteString(fmt.Sprintf("Answer: %s\n\n", answer))
	}

	sb.WriteString("Rate each criterion from 1-10:\n")
	sb.WriteString("1. Relevance - How relevant is the answer to the question?\n")
	sb.WriteString("2. Depth - How detailed and comprehensive is the response?\n")
	sb.WriteString("3. Communication - How clear and well-structured is the answer?\n")
	sb.WriteString("4. Experience - How much relevant experience is demonstrated?\n")
	sb.WriteString("5. Problem-solving - How well does the answer show problem-solving skills?\n\n")
	sb.WriteString("Provide scores and brief feedback for each criterion, one per line in the form \"Criterion: score/10 - feedback\".\n")
	sb.WriteString("Overall assessment should be 2-3 sentences.\n")

	return sb.String()
}

// parseScoringReply extracts ratings from a backend reply. A JSON object with
// criterion keys wins; otherwise each criterion is matched in free text.
// Criteria that cannot be found take their default score.
func parseScoringReply(reply, answer string) models.ScoreRecord {
	scores := make(map[models.Criterion]int, len(models.Criteria))
	feedback := make(map[models.Criterion]string, len(models.Criteria))

	jsonScores := extractJSONScores(reply)
	lower := strings.ToLower(reply)

	for _, c := range models.Criteria {
		mentioned := criterionPatterns[c].name.MatchString(lower)

		if v, ok := jsonScores[c]; ok {
			scores[c] = v
		} else if v, ok := findRating(criterionPatterns[c].name, lower); ok {
			scores[c] = v
		} else {
			scores[c] = defaultScores[c]
		}

		if mentioned {
			feedback[c] = fmt.Sprintf("Good demonstration of %s", c)
		} else {
			feedback[c] = fmt.Sprintf("Shows %s in the response", c)
		}
	}

	summary := fmt.Sprintf("Comprehensive answer that demonstrates good understanding. Total word count: %d words.", len(strings.Fields(answer)))
	return models.NewScoreRecord(scores, feedback, summary)
}

// extractJSONScores reads integer ratings from the first JSON object in reply
func extractJSONScores(reply string) map[models.Criterion]int {
	startIdx := strings.Index(reply, "{")
	endIdx := strings.LastIndex(reply, "}")
	if startIdx == -1 || endIdx <= startIdx {
		return nil
	}

	doc := reply[startIdx : endIdx+1]
	if !gjson.Valid(doc) {
		return nil
	}

	out := make(map[models.Criterion]int)
	for _, c := range models.Criteria {
		for _, key := range []string{string(c), string(c) + "_score", c.Title()} {
			v := gjson.Get(doc, key)
			if v.Type != gjson.Number {
				continue
			}
			n := int(v.Int())
			if n >= 1 && n <= 10 {
				out[c] = n
				break
			}
		}
	}
	return out
}

type criterionPattern struct {
	name *regexp.Regexp
}

var numberToken = regexp.MustCompile(`\d+`)

func buildCriterionPatterns() map[models.Criterion]criterionPattern {
	out := make(map[models.Criterion]criterionPattern, len(models.Criteria))
	for _, c := range models.Criteria {
		words := strings.Split(string(c), "_")
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		name := strings.Join(words, `[\s_-]?`)
		out[c] = criterionPattern{name: regexp.MustCompile(name)}
	}
	return out
}

// findRating returns the first rating that starts within scoreWindow bytes
// after a mention of the criterion. A number right after "/" is the scale of
// an "N/10" pair and never the rating itself.
func findRating(name *regexp.Regexp, text string) (int, bool) {
	for _, loc := range name.FindAllStringIndex(text, -1) {
		after := text[loc[1]:]
		for _, m := range numberToken.FindAllStringIndex(after, -1) {
			if m[0] > scoreWindow {
				break
			}
			if m[0] > 0 && after[m[0]-1] == '/' {
				continue
			}
			n, err := strconv.Atoi(after[m[0]:m[1]])
			if err != nil || n > 10 {
				continue
			}
			return clamp(n), true
		}
	}
	return 0, false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clamp(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement character
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// truncate shortens s to maxLen bytes on a rune boundary and appends an ellipsis
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
