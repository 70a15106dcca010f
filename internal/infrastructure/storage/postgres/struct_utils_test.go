package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
)

type testDoc struct {
	entity.Document
	Number string   `db:"doc_number"`
	Items  []string `db:"-"`
	note   string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[testDoc]()

	assert.Equal(t, []string{
		"id", "supplier_id", "created_by", "created_at", "updated_at",
		"number_scope", "number_seq", "doc_number",
	}, cols)
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	seq := int64(3)
	doc := testDoc{
		Document: entity.Document{
			ID:          id.New(),
			SupplierID:  id.New(),
			CreatedBy:   "u1",
			CreatedAt:   now,
			NumberScope: "ORD-",
			NumberSeq:   &seq,
		},
		Number: "ORD-003",
		note:   "ignored",
	}

	m := StructToMap(&doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, "u1", m["created_by"])
	assert.Equal(t, &seq, m["number_seq"])
	assert.Equal(t, "ORD-003", m["doc_number"])
	assert.NotContains(t, m, "Items")
	assert.Len(t, m, 8)
}

func TestPickColumns(t *testing.T) {
	data := map[string]any{"id": 1, "status": "sent", "notes": "x", "extra": true}

	picked := PickColumns(data, []string{"id", "status", "notes"}, "id")

	assert.Equal(t, map[string]any{"status": "sent", "notes": "x"}, picked)
}
