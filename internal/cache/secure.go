package cache

import (
	"context"
	"encoding/json"
	"time"

	ri "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"CreditDesk/config"
	"CreditDesk/pkg/logger"
	"CreditDesk/storage/redis"
	"CreditDesk/utils"
)

// 草稿缓存：表单快照在落 Redis 前先 AES-GCM 加密
// 缓存是尽力而为的，数据库才是权威，所以这里所有失败都只降级不报错
const (
	draftPrefix = "draft"
)

// DraftMeta 草稿元信息，明文存储（不含表单内容）
type DraftMeta struct {
	CurrentStep string    `json:"current_step"`
	FlowType    string    `json:"flow_type"`
	SavedAt     time.Time `json:"saved_at"`
}

func draftTTL() time.Duration {
	return time.Duration(config.Cfg.DraftRetentionDays) * 24 * time.Hour
}

// SetDraftSnapshot 加密后写入表单快照，并更新元信息
func SetDraftSnapshot(ctx context.Context, email string, meta DraftMeta, snapshot []byte) error {
	encrypted, err := utils.Encrypt(snapshot)
	if err != nil {
		return err
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	return DraftCacheBreaker.Call(ctx, func() error {
		pipe := redis.Client().Pipeline()
		pipe.Set(ctx, redis.Key(draftPrefix, "form", email), encrypted, draftTTL())
		pipe.Set(ctx, redis.Key(draftPrefix, "meta", email), metaBytes, draftTTL())
		_, err := pipe.Exec(ctx)
		return err
	})
}

// GetDraftSnapshot 读取并解密表单快照
// 解密失败（密钥轮换、数据损坏）按未命中处理并清掉脏数据
func GetDraftSnapshot(ctx context.Context, email string) (DraftMeta, []byte, bool) {
	var meta DraftMeta
	var encrypted, metaRaw string

	err := DraftCacheBreaker.Call(ctx, func() error {
		pipe := redis.Client().Pipeline()
		formCmd := pipe.Get(ctx, redis.Key(draftPrefix, "form", email))
		metaCmd := pipe.Get(ctx, redis.Key(draftPrefix, "meta", email))
		if _, err := pipe.Exec(ctx); err != nil && err != ri.Nil {
			return err
		}

		encrypted, _ = formCmd.Result()
		metaRaw, _ = metaCmd.Result()
		return nil
	})
	if err != nil {
		IncrCacheMiss(ctx, "draft")
		return meta, nil, false
	}

	if encrypted == "" || metaRaw == "" {
		IncrCacheMiss(ctx, "draft")
		return meta, nil, false
	}

	snapshot, err := utils.Decrypt(encrypted)
	if err != nil {
		logger.Logger.Warn("Failed to decrypt cached draft, dropping it",
			zap.String("email", email),
			zap.Error(err),
		)
		_ = ClearDraft(ctx, email)
		IncrCacheMiss(ctx, "draft")
		return meta, nil, false
	}

	if err := json.Unmarshal([]byte(metaRaw), &meta); err != nil {
		_ = ClearDraft(ctx, email)
		IncrCacheMiss(ctx, "draft")
		return meta, nil, false
	}

	IncrCacheHit(ctx, "draft")
	return meta, snapshot, true
}

// MarkBackendSaved 标记该草稿已成功落库
// 恢复时据此判断缓存副本是否可能比数据库旧
func MarkBackendSaved(ctx context.Context, email string) error {
	return redis.Client().Set(ctx, redis.Key(draftPrefix, "saved", email), 1, draftTTL()).Err()
}

// IsBackendSaved 查询落库标记
func IsBackendSaved(ctx context.Context, email string) bool {
	n, err := redis.Client().Exists(ctx, redis.Key(draftPrefix, "saved", email)).Result()
	return err == nil && n > 0
}

// ClearDraft 清除用户的全部草稿键（建档完成或主动放弃时调用）
func ClearDraft(ctx context.Context, email string) error {
	return redis.Client().Del(ctx,
		redis.Key(draftPrefix, "form", email),
		redis.Key(draftPrefix, "meta", email),
		redis.Key(draftPrefix, "saved", email),
	).Err()
}
