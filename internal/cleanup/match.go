// Package cleanup evaluates user-defined match criteria against synced
// emails and partitions them into ordered task groups for bulk action.
// Everything here is a pure function over its inputs.
package cleanup

import (
	"sort"
	"strings"

	"mailnick/internal/model"
)

// TaskMatch pairs a rule with the currently-loaded emails it matched.
// Derived at request time, never persisted.
type TaskMatch struct {
	Rule       *model.CleanupRule `json:"rule"`
	Emails     []*model.Email     `json:"emails"`
	TotalCount int                `json:"total_count"`
	Hidden     bool               `json:"hidden"`
}

// Matches reports whether the email satisfies the criteria. An "all"
// criteria with no conditions is vacuously true; an "any" criteria with no
// conditions is vacuously false.
func Matches(email *model.Email, criteria model.MatchCriteria) bool {
	if criteria.Type == model.CriteriaAll {
		for _, cond := range criteria.Conditions {
			if !matchesCondition(email, cond) {
				return false
			}
		}
		return true
	}
	for _, cond := range criteria.Conditions {
		if matchesCondition(email, cond) {
			return true
		}
	}
	return false
}

func matchesCondition(email *model.Email, cond model.Condition) bool {
	raw := fieldValue(email, cond.Field)
	target := raw
	if !cond.CaseSensitive {
		target = strings.ToLower(raw)
	}

	switch cond.Operator {
	case model.OpEquals:
		return target == normalize(cond.Value.First(), cond.CaseSensitive)
	case model.OpContains:
		return strings.Contains(target, normalize(cond.Value.First(), cond.CaseSensitive))
	case model.OpStartsWith:
		return strings.HasPrefix(target, normalize(cond.Value.First(), cond.CaseSensitive))
	case model.OpEndsWith:
		return strings.HasSuffix(target, normalize(cond.Value.First(), cond.CaseSensitive))
	case model.OpIn:
		for _, v := range cond.Value {
			if cond.CaseSensitive {
				if v == raw {
					return true
				}
			} else if strings.ToLower(v) == target {
				return true
			}
		}
		return false
	default:
		// Unrecognized operators never match.
		return false
	}
}

func normalize(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func fieldValue(email *model.Email, field model.ConditionField) string {
	switch field {
	case model.FieldFrom:
		return email.From
	case model.FieldFromDomain:
		return email.FromDomain
	case model.FieldTo:
		return email.To
	case model.FieldSubject:
		return email.Subject
	case model.FieldCategory:
		return email.Category
	case model.FieldSnippet:
		return email.Snippet
	default:
		return ""
	}
}

// GroupByRules partitions emails into one TaskMatch per enabled rule that
// matched at least one email. The result is sorted by display order
// ascending; ties keep the rules' input order.
func GroupByRules(emails []*model.Email, rules []*model.CleanupRule, hiddenRuleIDs []string) []TaskMatch {
	hidden := make(map[string]bool, len(hiddenRuleIDs))
	for _, id := range hiddenRuleIDs {
		hidden[id] = true
	}

	var matches []TaskMatch
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		var matching []*model.Email
		for _, email := range emails {
			if Matches(email, rule.MatchCriteria) {
				matching = append(matching, email)
			}
		}
		if len(matching) == 0 {
			continue
		}
		matches = append(matches, TaskMatch{
			Rule:       rule,
			Emails:     matching,
			TotalCount: len(matching),
			Hidden:     hidden[rule.ID],
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Rule.DisplayOrder < matches[j].Rule.DisplayOrder
	})
	return matches
}
