package models

import "regexp"

// Mention is a reference extracted from comment text. The client embeds the
// stable form @[<hex id>:<display name>]; a bare @name is kept as a
// name-only mention and resolved by exact full-name match.
type Mention struct {
	ID   string
	Name string
}

var (
	idMentionRe   = regexp.MustCompile(`@\[([0-9a-fA-F]{24}):([^\]]+)\]`)
	bareMentionRe = regexp.MustCompile(`@([A-Za-z][A-Za-z0-9_.-]*)`)
)

// ParseMentions extracts all mentions from text. ID-embedded tokens win over
// bare tokens; duplicates are collapsed.
func ParseMentions(text string) []Mention {
	var mentions []Mention
	seen := make(map[string]bool)

	stripped := idMentionRe.ReplaceAllStringFunc(text, func(match string) string {
		groups := idMentionRe.FindStringSubmatch(match)
		key := "id:" + groups[1]
		if !seen[key] {
			seen[key] = true
			mentions = append(mentions, Mention{ID: groups[1], Name: groups[2]})
		}
		return ""
	})

	for _, groups := range bareMentionRe.FindAllStringSubmatch(stripped, -1) {
		key := "name:" + groups[1]
		if !seen[key] {
			seen[key] = true
			mentions = append(mentions, Mention{Name: groups[1]})
		}
	}

	return mentions
}
