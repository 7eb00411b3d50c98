package bot

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ceconelo/financaia/internal/core"
)

// sortedMoneyLines renders a category/member map as bullet lines in
// descending amount order, largest first, ties broken by name so the
// output is stable.
func sortedMoneyLines(m map[string]core.Money) []string {
	type entry struct {
		name   string
		amount core.Money
	}
	entries := make([]entry, 0, len(m))
	for name, amount := range m {
		entries = append(entries, entry{name, amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].amount.Cents != entries[j].amount.Cents {
			return entries[i].amount.Cents > entries[j].amount.Cents
		}
		return entries[i].name < entries[j].name
	})

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("• %s: %s\n", escapeMarkdown(e.name), e.amount.Format()))
	}
	return lines
}

// progressBar renders a ten-slot 🟩⬜ bar for a 0-100 percentage.
func progressBar(percentage float64) string {
	const slots = 10
	filled := int(math.Round(percentage / 100 * slots))
	if filled > slots {
		filled = slots
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("🟩", filled) + strings.Repeat("⬜", slots-filled)
}

// escapeMarkdown neutralizes the formatting characters a user-supplied
// name could smuggle into a reply.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]")
	return r.Replace(s)
}
