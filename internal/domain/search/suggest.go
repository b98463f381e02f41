package search

import (
	"strings"

	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/sahilm/fuzzy"
)

// Suggest ranks candidates against input with fuzzy matching and returns at
// most limit distinct strings. An exact match of the input is not a suggestion.
// With a blank input the first candidates are returned as-is.
func Suggest(input string, candidates []string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}
	unique := dedupeFold(candidates)
	input = strings.TrimSpace(input)
	if input == "" {
		return unique[:min(limit, len(unique))]
	}

	out := make([]string, 0, limit)
	for _, match := range fuzzy.Find(input, unique) {
		if strings.EqualFold(match.Str, input) {
			continue
		}
		out = append(out, match.Str)
		if len(out) == limit {
			break
		}
	}
	return out
}

// suggestionCandidates lists titles and technologies of the given projects.
func suggestionCandidates(projects []project.Project) []string {
	out := make([]string, 0, len(projects)*2)
	for _, p := range projects {
		out = append(out, p.Title)
	}
	for _, p := range projects {
		out = append(out, p.TechnologyStack...)
	}
	return out
}

func dedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
