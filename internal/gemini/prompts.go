package gemini

import (
	"fmt"
	"strings"

	"github.com/edgard/dymbot/internal/database"
)

// FeedbackHeader opens every digest prompt. It expects the number of customers.
const FeedbackHeader = "Ответы покупателей (%d):\n\n"

// FeedbackPrompt renders the free-text answers one customer per block.
// Customers are anonymised by their position; empty answers are omitted.
func FeedbackPrompt(customers []database.Customer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, FeedbackHeader, len(customers))

	for i, c := range customers {
		fmt.Fprintf(&sb, "#%d", i+1)
		if tags := nonEmpty(c.Gender, c.AgeGroup, c.VisitFreq); len(tags) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(tags, ", "))
		}
		sb.WriteString("\n")
		writeAnswer(&sb, "Нравится", c.Appreciate)
		writeAnswer(&sb, "Не нравится", c.Dislike)
		writeAnswer(&sb, "Изменить", c.Improve)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeAnswer(sb *strings.Builder, label, answer string) {
	answer = strings.Join(strings.Fields(answer), " ")
	if answer == "" {
		return
	}
	fmt.Fprintf(sb, "%s: %s\n", label, answer)
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
