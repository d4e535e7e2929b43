package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
)

// CompressionAlgo names how a snapshot is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// auditRow is one row of sys_audit.
type auditRow struct {
	ID                 id.ID           `db:"id" json:"id"`
	TenantID           id.ID           `db:"tenant_id" json:"tenantId"`
	EntityType         string          `db:"entity_type" json:"entityType"`
	EntityID           id.ID           `db:"entity_id" json:"entityId"`
	Action             string          `db:"action" json:"action"`
	ActorID            id.ID           `db:"actor_id" json:"actorId"`
	Snapshot           json.RawMessage `db:"snapshot" json:"snapshot,omitempty"`
	SnapshotCompressed []byte          `db:"snapshot_compressed" json:"-"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo" json:"-"`
	Metadata           json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
}

// AuditStore writes the document audit trail. Snapshots larger than the
// threshold are zstd-compressed.
type AuditStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var (
	_ domain.AuditRecorder = (*AuditStore)(nil)
	_ domain.AuditReader   = (*AuditStore)(nil)
)

// NewAuditStore creates a new audit store.
func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
	}, nil
}

// Record implements domain.AuditRecorder.
func (s *AuditStore) Record(ctx context.Context, rec domain.AuditRecord) error {
	entry, err := s.encode(rec)
	if err != nil {
		return err
	}
	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, tenant_id, entity_type, entity_id, action, actor_id,
			snapshot, snapshot_compressed, compression_algo, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		entry.ID, entry.TenantID, entry.EntityType, entry.EntityID, entry.Action, entry.ActorID,
		entry.Snapshot, entry.SnapshotCompressed, entry.CompressionAlgo, entry.Metadata, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History implements domain.AuditReader. Compressed snapshots are inflated.
func (s *AuditStore) History(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []auditRow
	if err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &rows, `
		SELECT id, tenant_id, entity_type, entity_id, action, actor_id,
		       snapshot, snapshot_compressed, compression_algo, metadata, created_at
		FROM sys_audit
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
		LIMIT $4
	`, tenantID, entityType, entityID, limit); err != nil {
		return nil, fmt.Errorf("select audit history: %w", err)
	}
	out := make([]domain.AuditEntry, 0, len(rows))
	for i := range rows {
		if err := s.decode(&rows[i]); err != nil {
			return nil, err
		}
		out = append(out, rows[i].entry())
	}
	return out, nil
}

func (r *auditRow) entry() domain.AuditEntry {
	return domain.AuditEntry{
		ID:         r.ID,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Action:     r.Action,
		ActorID:    r.ActorID,
		Snapshot:   r.Snapshot,
		Metadata:   r.Metadata,
		CreatedAt:  r.CreatedAt,
	}
}

func (s *AuditStore) encode(rec domain.AuditRecord) (auditRow, error) {
	entry := auditRow{
		ID:              id.New(),
		TenantID:        rec.TenantID,
		EntityType:      rec.EntityType,
		EntityID:        rec.EntityID,
		Action:          string(rec.Action),
		ActorID:         rec.ActorID,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}
	if rec.Snapshot != nil {
		snapshot, err := json.Marshal(rec.Snapshot)
		if err != nil {
			return entry, fmt.Errorf("marshal audit snapshot: %w", err)
		}
		if len(snapshot) > s.compressThreshold {
			entry.SnapshotCompressed = s.encoder.EncodeAll(snapshot, nil)
			entry.CompressionAlgo = CompressionZstd
		} else {
			entry.Snapshot = snapshot
		}
	}
	if len(rec.Metadata) > 0 {
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return entry, fmt.Errorf("marshal audit metadata: %w", err)
		}
		entry.Metadata = meta
	}
	return entry, nil
}

func (s *AuditStore) decode(e *auditRow) error {
	if e.CompressionAlgo != CompressionZstd || len(e.SnapshotCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(e.SnapshotCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress audit snapshot %s: %w", e.ID, err)
	}
	e.Snapshot = raw
	e.SnapshotCompressed = nil
	return nil
}
