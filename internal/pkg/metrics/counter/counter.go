package counter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ClipFox/internal/pkg/cache"
	"github.com/ManuelReschke/ClipFox/internal/pkg/database"
)

const videoDownloadsKey = "video:counters:downloads"

// AddVideoDownload increments the pending download counter for a video in Redis
func AddVideoDownload(ctx context.Context, videoID uint) error {
	field := strconv.FormatUint(uint64(videoID), 10)
	return cache.GetClient().HIncrBy(ctx, videoDownloadsKey, field, 1).Err()
}

// FlushAll drains pending counters into the database
func FlushAll(ctx context.Context) error {
	return flushHashToTable(ctx, cache.GetClient(), database.GetDB(), videoDownloadsKey, "videos", "download_count")
}

// flushHashToTable drains a Redis hash and applies batched increments to table.
// RENAME to a temporary key drains atomically without losing in-flight increments.
func flushHashToTable(ctx context.Context, rdb *redis.Client, db *gorm.DB, redisKey, table, column string) error {
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Rename(ctx, redisKey, tmpKey).Err(); err != nil {
		if errors.Is(err, redis.Nil) || strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}

	sql, args := buildIncrementSQL(table, column, parseIncrements(data))
	if sql == "" {
		return nil
	}
	return db.WithContext(ctx).Exec(sql, args...).Error
}

type increment struct {
	id  uint64
	inc int64
}

// parseIncrements turns a hash of id -> delta into sorted increments, skipping
// malformed and zero entries.
func parseIncrements(data map[string]string) []increment {
	out := make([]increment, 0, len(data))
	for k, v := range data {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		inc, err := strconv.ParseInt(v, 10, 64)
		if err != nil || inc == 0 {
			continue
		}
		out = append(out, increment{id: id, inc: inc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// buildIncrementSQL composes
// UPDATE <table> SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN (...)
func buildIncrementSQL(table, column string, incs []increment) (string, []interface{}) {
	if len(incs) == 0 {
		return "", nil
	}
	var b strings.Builder
	args := make([]interface{}, 0, len(incs)*3)
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	b.WriteString(column)
	b.WriteString(" = ")
	b.WriteString(column)
	b.WriteString(" + CASE id")
	for _, p := range incs {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	b.WriteString(" END WHERE id IN (")
	for i, p := range incs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
		args = append(args, p.id)
	}
	b.WriteString(")")
	return b.String(), args
}
