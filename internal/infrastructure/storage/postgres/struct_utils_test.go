package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
)

type sampleDoc struct {
	entity.ApprovableDocument
	Number string   `db:"number"`
	Items  []string `db:"-"`
}

func TestExtractDBColumns_IncludesEmbeddedHeader(t *testing.T) {
	cols := ExtractDBColumns[sampleDoc]()

	for _, c := range []string{"id", "tenant_id", "version", "created_by", "deleted_at", "status", "approved_by", "completed_at", "notes", "number"} {
		assert.Contains(t, cols, c)
	}
	assert.NotContains(t, cols, "-")
	assert.Equal(t, "id", cols[0])
	assert.Equal(t, "number", cols[len(cols)-1])
}

func TestStructToMap_ReadsNestedFields(t *testing.T) {
	tenant, user := id.New(), id.New()
	doc := sampleDoc{ApprovableDocument: entity.NewApprovableDocument(tenant, user), Number: "ADJ-202601-00001"}
	doc.Notes = "n"

	m := StructToMap(&doc)
	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, tenant, m["tenant_id"])
	assert.Equal(t, entity.StatusDraft, m["status"])
	assert.Equal(t, "n", m["notes"])
	assert.Equal(t, "ADJ-202601-00001", m["number"])

	vals := StructValues(doc, []string{"number", "version"})
	require.Len(t, vals, 2)
	assert.Equal(t, "ADJ-202601-00001", vals[0])
	assert.Equal(t, 1, vals[1])
}
