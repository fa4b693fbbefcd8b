package service_test

import (
	"context"
	"testing"
	"time"

	"mailnick/internal/logger"
	"mailnick/internal/model"
	"mailnick/internal/repository/memory"
	"mailnick/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuleFixture() (service.RuleService, *memory.EmailRepository, *memory.ActionRepository) {
	emails := memory.NewEmailRepository()
	actions := memory.NewActionRepository(emails)
	rules := memory.NewRuleRepository()
	return service.NewRuleService(rules, emails, actions, logger.New()), emails, actions
}

func domainCriteria(domain string) model.MatchCriteria {
	return model.MatchCriteria{
		Type: model.CriteriaAll,
		Conditions: []model.Condition{
			{Field: model.FieldFromDomain, Operator: model.OpEquals, Value: model.ConditionValue{domain}},
		},
	}
}

func TestRuleServiceCRUD(t *testing.T) {
	svc, _, _ := newRuleFixture()
	ctx := context.Background()

	// Create appends at the end of the display order
	first, err := svc.CreateRule(ctx, testAccount, "News", domainCriteria("updates.example.com"), "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, 0, first.DisplayOrder)
	assert.True(t, first.Enabled)

	second, err := svc.CreateRule(ctx, testAccount, "Shopping", domainCriteria("shop.example.com"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, second.DisplayOrder)

	rules, err := svc.ListRules(ctx, testAccount)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "News", rules[0].Name)

	// Partial update touches only the given fields
	newName := "Newsletters"
	disabled := false
	updated, err := svc.UpdateRule(ctx, testAccount, first.ID, service.RuleUpdate{Name: &newName, Enabled: &disabled})
	require.NoError(t, err)
	assert.Equal(t, "Newsletters", updated.Name)
	assert.False(t, updated.Enabled)
	assert.Equal(t, first.MatchCriteria, updated.MatchCriteria)

	// Delete
	require.NoError(t, svc.DeleteRule(ctx, testAccount, second.ID))
	rules, err = svc.ListRules(ctx, testAccount)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	err = svc.DeleteRule(ctx, testAccount, second.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRuleServiceValidation(t *testing.T) {
	svc, _, _ := newRuleFixture()
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, testAccount, "", domainCriteria("a.com"), "")
	assert.Error(t, err)

	_, err = svc.CreateRule(ctx, testAccount, "Bad", model.MatchCriteria{Type: "some"}, "")
	assert.Error(t, err)

	_, err = svc.UpdateRule(ctx, testAccount, "missing", service.RuleUpdate{})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRuleServiceReorder(t *testing.T) {
	svc, _, _ := newRuleFixture()
	ctx := context.Background()

	a, err := svc.CreateRule(ctx, testAccount, "A", domainCriteria("a.com"), "")
	require.NoError(t, err)
	b, err := svc.CreateRule(ctx, testAccount, "B", domainCriteria("b.com"), "")
	require.NoError(t, err)
	c, err := svc.CreateRule(ctx, testAccount, "C", domainCriteria("c.com"), "")
	require.NoError(t, err)

	require.NoError(t, svc.Reorder(ctx, testAccount, []string{c.ID, a.ID, b.ID}))

	rules, err := svc.ListRules(ctx, testAccount)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "C", rules[0].Name)
	assert.Equal(t, "A", rules[1].Name)
	assert.Equal(t, "B", rules[2].Name)

	err = svc.Reorder(ctx, testAccount, []string{"missing"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRuleServiceTasks(t *testing.T) {
	svc, emails, _ := newRuleFixture()
	ctx := context.Background()

	news, err := svc.CreateRule(ctx, testAccount, "News", domainCriteria("updates.example.com"), "")
	require.NoError(t, err)
	_, err = svc.CreateRule(ctx, testAccount, "Shopping", domainCriteria("shop.example.com"), "")
	require.NoError(t, err)

	unread := model.NewEmail(testAccount, "m1", "t1", "news@updates.example.com", testAccount, "Digest", "sn", time.Now())
	require.NoError(t, emails.Create(ctx, unread))

	// read emails stay out of the task board
	read := model.NewEmail(testAccount, "m2", "t2", "promo@shop.example.com", testAccount, "Sale", "sn", time.Now())
	read.IsUnread = false
	require.NoError(t, emails.Create(ctx, read))

	tasks, err := svc.Tasks(ctx, testAccount, []string{news.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, news.ID, tasks[0].Rule.ID)
	assert.True(t, tasks[0].Hidden)
	assert.Equal(t, 1, tasks[0].TotalCount)
}

func TestRuleServiceStats(t *testing.T) {
	svc, emails, actions := newRuleFixture()
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, testAccount, "News", domainCriteria("updates.example.com"), "")
	require.NoError(t, err)

	e := model.NewEmail(testAccount, "m1", "t1", "news@updates.example.com", testAccount, "Digest", "sn", time.Now())
	require.NoError(t, emails.Create(ctx, e))

	entry, err := model.NewActionEntry(testAccount, "m1", model.ActionArchive, model.OriginalState{IsUnread: true}, time.Now().Add(time.Hour), rule.ID)
	require.NoError(t, err)
	require.NoError(t, actions.Record(ctx, entry, nil))

	stats, err := svc.Stats(ctx, testAccount)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[rule.ID][model.ActionArchive])
}
