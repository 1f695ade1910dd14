package oracle

import (
	"strings"
)

// BuildPrompt asks for one [description, category] pair per input line,
// choosing only from categories.
func BuildPrompt(descriptions, categories []string) string {
	var b strings.Builder
	b.WriteString("You categorize bank transactions.\n")
	b.WriteString("Assign every transaction description below to exactly one of these categories: ")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString(".\n")
	b.WriteString("Use Other when you are very uncertain about the category.\n")
	b.WriteString("Respond with a list of pairs, one pair per description, in this exact format and nothing else:\n")
	b.WriteString(`[["description 1", "category"], ["description 2", "category"]]`)
	b.WriteString("\nCopy each description exactly as given. Do not add explanations or markdown.\n\n")
	b.WriteString("Descriptions:\n")
	b.WriteString(strings.Join(descriptions, "\n"))
	return b.String()
}
