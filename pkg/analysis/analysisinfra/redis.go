package analysisinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/lectio/pkg/analysis"
	"github.com/Abraxas-365/lectio/pkg/errx"
)

var redisErrors = errx.NewRegistry("ANALYSIS_REDIS")

var (
	ErrRedisRead    = redisErrors.Register("READ", errx.TypeExternal, 502, "Failed to read job record")
	ErrRedisWrite   = redisErrors.Register("WRITE", errx.TypeExternal, 502, "Failed to write job record")
	ErrRedisMarshal = redisErrors.Register("MARSHAL", errx.TypeInternal, 500, "Failed to encode job record")
)

func recordKey(jobID string) string { return fmt.Sprintf("analysis:job:%s", jobID) }

// RedisRecordStore keeps durable job records as JSON values in Redis. This
// is what callers poll and what survives a process restart; the engine's
// in-memory table is just a cache in front of it.
//
// Only the owning job's orchestration path writes a given key, so plain
// read-modify-write is safe without WATCH.
type RedisRecordStore struct {
	rdb *redis.Client
}

// NewRedisRecordStore builds the store on an existing client.
func NewRedisRecordStore(rdb *redis.Client) *RedisRecordStore {
	return &RedisRecordStore{rdb: rdb}
}

func (s *RedisRecordStore) Save(ctx context.Context, record analysis.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return redisErrors.NewWithCause(ErrRedisMarshal, err)
	}
	// Records carry no TTL: retention is an external policy.
	if err := s.rdb.Set(ctx, recordKey(record.JobID), data, 0).Err(); err != nil {
		return redisErrors.NewWithCause(ErrRedisWrite, err).WithDetail("job_id", record.JobID)
	}
	return nil
}

func (s *RedisRecordStore) Update(ctx context.Context, jobID string, patch analysis.RecordPatch) error {
	record, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	patch.Apply(&record)
	return s.Save(ctx, record)
}

func (s *RedisRecordStore) Get(ctx context.Context, jobID string) (analysis.Record, error) {
	data, err := s.rdb.Get(ctx, recordKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return analysis.Record{}, errx.NotFound("job record not found").WithDetail("job_id", jobID)
	}
	if err != nil {
		return analysis.Record{}, redisErrors.NewWithCause(ErrRedisRead, err).WithDetail("job_id", jobID)
	}

	var record analysis.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return analysis.Record{}, redisErrors.NewWithCause(ErrRedisMarshal, err).WithDetail("job_id", jobID)
	}
	return record, nil
}
