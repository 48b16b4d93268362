package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion  = []byte("schema_version")
	keyMetric         = []byte("metric")
	keyEmbeddingModel = []byte("embedding_model")
	keyDimension      = []byte("dimension")
)

// SchemaInfo is what the index records about how it was built.
type SchemaInfo struct {
	Version        int    `json:"version"`
	Metric         Metric `json:"metric"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
}

// GetSchemaInfo retrieves the current schema info from the database.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		info.Version = getInt(b, keySchemaVersion)
		info.Dimension = getInt(b, keyDimension)
		info.Metric = Metric(b.Get(keyMetric))
		info.EmbeddingModel = string(b.Get(keyEmbeddingModel))
		return nil
	})
	return &info, err
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	NeedsRebuild   bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// CheckMigration reports whether the stored index can serve opts. Vectors
// from another model, or scored with another metric, are not comparable with
// new queries, so those cases need a rebuild.
func (s *BoltStore) CheckMigration(opts Options) (*MigrationResult, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version == 0:
		result.NeedsMigration = true
		result.Reason = "initializing schema version"
		return result, nil
	case info.Version > CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("database created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
		return result, nil
	case info.Version < CurrentSchemaVersion:
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", info.Version, CurrentSchemaVersion)
	}

	if info.Metric != "" && info.Metric != opts.Metric {
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("similarity metric changed from %s to %s", info.Metric, opts.Metric)
	} else if info.EmbeddingModel != "" && info.EmbeddingModel != opts.EmbeddingModel {
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("embedding model changed from %s to %s", info.EmbeddingModel, opts.EmbeddingModel)
	}

	return result, nil
}

// Migrate brings the schema up to date and records opts.
func (s *BoltStore) Migrate(opts Options) error {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return err
	}

	for v := info.Version; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if err := putInt(b, keySchemaVersion, CurrentSchemaVersion); err != nil {
			return err
		}
		if err := b.Put(keyMetric, []byte(opts.Metric)); err != nil {
			return err
		}
		return b.Put(keyEmbeddingModel, []byte(opts.EmbeddingModel))
	})
}

// runMigration runs a specific version migration.
func (s *BoltStore) runMigration(from, to int) error {
	switch {
	case from == 0 && to == 1:
		// buckets are created on open
		return nil
	default:
		return nil
	}
}

func getInt(b *bbolt.Bucket, key []byte) int {
	data := b.Get(key)
	if data == nil {
		return 0
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return 0
	}
	return v
}

func putInt(b *bbolt.Bucket, key []byte, v int) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}
