package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/workflow"
)

func TestAuditStore_CompressesLargeSnapshots(t *testing.T) {
	s, err := NewAuditStore(nil)
	require.NoError(t, err)

	big := map[string]string{"notes": strings.Repeat("counted twice, aisle 4. ", 400)}
	entry, err := s.encode(domain.AuditRecord{
		TenantID:   id.New(),
		EntityType: "stock_opname",
		EntityID:   id.New(),
		Action:     workflow.ActionComplete,
		ActorID:    id.New(),
		Snapshot:   big,
		Metadata:   map[string]any{"from": "approved", "to": "finalized"},
	})
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
	assert.Nil(t, entry.Snapshot)
	assert.Less(t, len(entry.SnapshotCompressed), 2000)
	assert.JSONEq(t, `{"from":"approved","to":"finalized"}`, string(entry.Metadata))

	require.NoError(t, s.decode(&entry))
	assert.Contains(t, string(entry.Snapshot), "aisle 4")
	assert.Nil(t, entry.SnapshotCompressed)

	out := entry.entry()
	assert.Equal(t, "stock_opname", out.EntityType)
	assert.Equal(t, string(workflow.ActionComplete), out.Action)
	assert.Contains(t, string(out.Snapshot), "aisle 4")
}

func TestAuditStore_SmallSnapshotStoredPlain(t *testing.T) {
	s, err := NewAuditStore(nil)
	require.NoError(t, err)

	entry, err := s.encode(domain.AuditRecord{EntityType: "stock_adjustment", Action: workflow.ActionCreate, Snapshot: map[string]int{"quantity": 3}})
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
	assert.JSONEq(t, `{"quantity":3}`, string(entry.Snapshot))
	assert.Nil(t, entry.Metadata)
}
