package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskClone_IsDeep(t *testing.T) {
	orig := &Task{
		ID:         "T1",
		PRD:        StringPtr("prd"),
		References: []string{"wiki"},
		QAAnswers:  []QAAnswer{{QuestionID: "q1", Answer: "a"}},
	}
	c := orig.Clone()
	*c.PRD = "changed"
	c.References[0] = "other"
	c.QAAnswers[0].Answer = "b"

	assert.Equal(t, "prd", *orig.PRD)
	assert.Equal(t, "wiki", orig.References[0])
	assert.Equal(t, "a", orig.QAAnswers[0].Answer)
	assert.Nil(t, (*Task)(nil).Clone())
}

func TestTaskPatch_MergeAndApply(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())

	refs := []string{"wiki", "gdd"}
	p := TaskPatch{Title: StringPtr("one"), FeatureList: StringPtr("plant")}.
		Merge(TaskPatch{Title: StringPtr("two"), References: &refs})
	require.False(t, p.IsEmpty())
	assert.Equal(t, "two", *p.Title)
	assert.Equal(t, "plant", *p.FeatureList)

	task := &Task{Title: "zero", Status: StatusPRD, PRD: StringPtr("keep")}
	p.Apply(task)
	assert.Equal(t, "two", task.Title)
	assert.Equal(t, "plant", task.FeatureList)
	assert.Equal(t, []string{"wiki", "gdd"}, task.References)
	assert.Equal(t, "keep", *task.PRD)
	assert.Equal(t, StatusPRD, task.Status)

	refs[0] = "mutated"
	assert.Equal(t, "wiki", task.References[0], "apply copies the slice")
}

func TestTaskHasDocument(t *testing.T) {
	task := &Task{FeatureList: "x", DesignDocument: StringPtr("")}
	assert.True(t, task.HasDocument(DocFeatureList))
	assert.False(t, task.HasDocument(DocDesign), "empty counts as missing")
	assert.False(t, task.HasDocument(DocPRD))
	assert.True(t, IsValidTaskStatus("prototype"))
	assert.False(t, IsValidTaskStatus("done"))
	assert.True(t, IsValidCategory("growth"))
}
