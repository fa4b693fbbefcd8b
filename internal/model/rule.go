package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CriteriaType is the boolean combinator of a rule's conditions.
type CriteriaType string

const (
	CriteriaAll CriteriaType = "all" // every condition must match
	CriteriaAny CriteriaType = "any" // at least one condition must match
)

// Operator compares an email field against a condition value.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpIn         Operator = "in"
)

// ConditionField names the email field a condition reads.
type ConditionField string

const (
	FieldFrom       ConditionField = "from"
	FieldFromDomain ConditionField = "fromDomain"
	FieldTo         ConditionField = "to"
	FieldSubject    ConditionField = "subject"
	FieldCategory   ConditionField = "category"
	FieldSnippet    ConditionField = "snippet"
)

// ConditionValue accepts either a single JSON string or a list of strings.
type ConditionValue []string

func (v *ConditionValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = ConditionValue{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = ConditionValue(list)
	return nil
}

// First returns the scalar comparison value, or "" when none was given.
func (v ConditionValue) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Condition is a single field predicate. Comparison is case-insensitive
// unless CaseSensitive is set.
type Condition struct {
	Field         ConditionField `json:"field"`
	Operator      Operator       `json:"operator"`
	Value         ConditionValue `json:"value"`
	CaseSensitive bool           `json:"caseSensitive,omitempty"`
}

// MatchCriteria is a boolean combinator over a list of conditions.
type MatchCriteria struct {
	Type       CriteriaType `json:"type"`
	Conditions []Condition  `json:"conditions"`
}

// CleanupRule is a user-defined, ordered predicate used to batch-classify
// emails into task groups. Only enabled rules participate in grouping.
type CleanupRule struct {
	ID            string        `json:"id"`
	AccountID     string        `json:"account_id"`
	Name          string        `json:"name"`
	MatchCriteria MatchCriteria `json:"match_criteria"`
	DisplayOrder  int           `json:"display_order"`
	Enabled       bool          `json:"enabled"`
	Color         string        `json:"color,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func NewCleanupRule(accountID, name string, criteria MatchCriteria, displayOrder int, color string) *CleanupRule {
	now := time.Now()
	return &CleanupRule{
		ID:            uuid.New().String(),
		AccountID:     accountID,
		Name:          name,
		MatchCriteria: criteria,
		DisplayOrder:  displayOrder,
		Enabled:       true,
		Color:         color,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
