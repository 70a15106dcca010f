package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/activity"
)

// DetailsEncoding tells how activity_log details are stored.
type DetailsEncoding string

const (
	EncodingJSON DetailsEncoding = "json"
	EncodingZstd DetailsEncoding = "zstd"
)

// DefaultCompressThreshold is the details size above which payloads are compressed.
const DefaultCompressThreshold = 512

// ActivityStore implements activity.Sink on the activity_log table.
type ActivityStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ activity.Sink = (*ActivityStore)(nil)

// NewActivityStore creates an activity store.
func NewActivityStore(txManager *TxManager) (*ActivityStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ActivityStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// encodeDetails marshals details, compressing payloads over the threshold.
// Exactly one of plain and compressed is non-nil when details are present.
func (s *ActivityStore) encodeDetails(details map[string]any) (plain, compressed []byte, enc DetailsEncoding, err error) {
	if len(details) == 0 {
		return nil, nil, EncodingJSON, nil
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return nil, nil, "", fmt.Errorf("marshal details: %w", err)
	}

	if len(raw) > s.compressThreshold {
		return nil, s.encoder.EncodeAll(raw, nil), EncodingZstd, nil
	}
	return raw, nil, EncodingJSON, nil
}

func (s *ActivityStore) decodeDetails(plain, compressed []byte, enc DetailsEncoding) (map[string]any, error) {
	raw := plain
	if enc == EncodingZstd && len(compressed) > 0 {
		decompressed, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress details: %w", err)
		}
		raw = decompressed
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var details map[string]any
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return details, nil
}

// Insert implements activity.Sink.
func (s *ActivityStore) Insert(ctx context.Context, e *activity.Entry) error {
	plain, compressed, enc, err := s.encodeDetails(e.Details)
	if err != nil {
		return err
	}

	sql := `
		INSERT INTO activity_log (
			id, action, entity_kind, entity_id, user_id,
			details, details_compressed, details_encoding, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	// JSONB takes text; a nil slice stores NULL.
	var detailsText *string
	if plain != nil {
		t := string(plain)
		detailsText = &t
	}

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		e.ID, string(e.Action), e.EntityKind, e.EntityID, e.UserID,
		detailsText, compressed, string(enc), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListForEntity returns the newest entries recorded for an entity.
func (s *ActivityStore) ListForEntity(ctx context.Context, entityKind string, entityID id.ID, limit int) ([]activity.Entry, error) {
	sql := `
		SELECT id, action, entity_kind, entity_id, user_id,
		       details::text, details_compressed, details_encoding, created_at
		FROM activity_log
		WHERE entity_kind = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityKind, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	entries := make([]activity.Entry, 0)
	for rows.Next() {
		var (
			e          activity.Entry
			action     string
			plain      *string
			compressed []byte
			enc        string
		)
		if err := rows.Scan(
			&e.ID, &action, &e.EntityKind, &e.EntityID, &e.UserID,
			&plain, &compressed, &enc, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Action = activity.Action(action)

		var plainBytes []byte
		if plain != nil {
			plainBytes = []byte(*plain)
		}
		if e.Details, err = s.decodeDetails(plainBytes, compressed, DetailsEncoding(enc)); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
