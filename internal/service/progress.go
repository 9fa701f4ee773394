package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CreditDesk/internal/cache"
	"CreditDesk/internal/model"
	"CreditDesk/internal/model/dto"
	"CreditDesk/pkg/errors"
	"CreditDesk/pkg/logger"
	"CreditDesk/pkg/metrics"
	"CreditDesk/storage/database"
)

// maxSnapshotBytes 快照大小上限，防止恶意 payload 撑爆 jsonb 列
const maxSnapshotBytes = 256 * 1024

var (
	progressService *ProgressService
	progressOnce    sync.Once
)

func Progress() *ProgressService {
	progressOnce.Do(func() {
		progressService = &ProgressService{}
	})
	return progressService
}

// ProgressService 草稿进度的服务端存储
// Postgres 是唯一权威数据源，加密的 Redis 副本只是读取加速
type ProgressService struct{}

// progressUpsertConflict 按邮箱一行 upsert 的冲突子句
// excluded.deleted_at 是 NULL，软删除过的行在这里被复活
func progressUpsertConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "user_email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"flow_type", "current_step", "snapshot", "saved_at", "updated_at", "deleted_at",
		}),
	}
}

// Upsert 保存一份进度快照，按邮箱一行 upsert
func (s *ProgressService) Upsert(ctx context.Context, email string, req dto.UpdateProgressRequest) error {
	if model.StepNumber(req.CurrentStep) == model.FirstStepNumber &&
		req.CurrentStep != model.StepPersonalDetails {
		return errors.OnboardingStepInvalid
	}

	flowType := model.FlowType(req.FlowType)
	if req.FlowType == "" {
		flowType = model.FlowTypeNewBusiness
	} else if !model.ValidFlowType(flowType) {
		return errors.OnboardingFlowInvalid
	}

	snapshotBytes, err := json.Marshal(req.Snapshot)
	if err != nil {
		return errors.ValidationFailed
	}
	if len(snapshotBytes) > maxSnapshotBytes {
		return errors.ProgressSnapshotTooBig
	}

	now := time.Now()
	record := &model.OnboardingProgress{
		UserEmail:   email,
		FlowType:    flowType,
		CurrentStep: req.CurrentStep,
		Snapshot:    snapshotBytes,
		SavedAt:     now,
	}

	db := database.DB().WithContext(ctx)
	// deleted_at 必须一起重置：Clear 之后这一行是软删除状态，
	// 不复活的话保存看似成功，Get 却再也查不到
	err = db.Clauses(progressUpsertConflict()).Create(record).Error
	if err != nil {
		if m := metrics.GetMetrics(); m != nil {
			m.RecordDraftSave(ctx, "failed")
		}
		return err
	}
	if m := metrics.GetMetrics(); m != nil {
		m.RecordDraftSave(ctx, "success")
	}

	// 缓存副本尽力而为，失败不影响保存结果
	meta := cache.DraftMeta{
		CurrentStep: req.CurrentStep,
		FlowType:    string(flowType),
		SavedAt:     now,
	}
	if err := cache.SetDraftSnapshot(ctx, email, meta, snapshotBytes); err != nil {
		logger.Logger.Warn("Failed to cache draft snapshot",
			zap.String("email", email),
			zap.Error(err),
		)
	} else if err := cache.MarkBackendSaved(ctx, email); err != nil {
		logger.Logger.Warn("Failed to mark draft backend save",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	return nil
}

// Get 读取进度，优先走加密缓存，未命中回源数据库
func (s *ProgressService) Get(ctx context.Context, email string) (*dto.ProgressData, error) {
	if meta, snapshotBytes, ok := cache.GetDraftSnapshot(ctx, email); ok && cache.IsBackendSaved(ctx, email) {
		var snapshot map[string]interface{}
		if err := json.Unmarshal(snapshotBytes, &snapshot); err == nil {
			return &dto.ProgressData{
				CurrentStep: meta.CurrentStep,
				StepNumber:  model.StepNumber(meta.CurrentStep),
				FlowType:    meta.FlowType,
				Snapshot:    snapshot,
				SavedAt:     meta.SavedAt,
				Found:       true,
			}, nil
		}
	}

	var record model.OnboardingProgress
	err := database.DB().WithContext(ctx).
		Where("user_email = ?", email).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &dto.ProgressData{
				CurrentStep: model.StepPersonalDetails,
				StepNumber:  model.FirstStepNumber,
				Found:       false,
			}, nil
		}
		return nil, err
	}

	var snapshot map[string]interface{}
	if len(record.Snapshot) > 0 {
		if err := json.Unmarshal(record.Snapshot, &snapshot); err != nil {
			logger.Logger.Error("Corrupt progress snapshot in database",
				zap.String("email", email),
				zap.Error(err),
			)
			return &dto.ProgressData{
				CurrentStep: model.StepPersonalDetails,
				StepNumber:  model.FirstStepNumber,
				Found:       false,
			}, nil
		}
	}

	// 回填缓存，供下次快速读取
	meta := cache.DraftMeta{
		CurrentStep: record.CurrentStep,
		FlowType:    string(record.FlowType),
		SavedAt:     record.SavedAt,
	}
	if err := cache.SetDraftSnapshot(ctx, email, meta, record.Snapshot); err == nil {
		_ = cache.MarkBackendSaved(ctx, email)
	}

	return &dto.ProgressData{
		CurrentStep: record.CurrentStep,
		StepNumber:  model.StepNumber(record.CurrentStep),
		FlowType:    string(record.FlowType),
		Snapshot:    snapshot,
		SavedAt:     record.SavedAt,
		Found:       true,
	}, nil
}

// Clear 删除进度记录和缓存副本（建档成功后调用）
func (s *ProgressService) Clear(ctx context.Context, email string) error {
	err := database.DB().WithContext(ctx).
		Where("user_email = ?", email).
		Delete(&model.OnboardingProgress{}).Error
	if err != nil {
		return err
	}

	if err := cache.ClearDraft(ctx, email); err != nil {
		logger.Logger.Warn("Failed to clear draft cache",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	return nil
}

// AttachTenant 建档完成后把进度行关联到租户（软删除前留档）
func (s *ProgressService) AttachTenant(ctx context.Context, email string, tenantID int64) error {
	return database.DB().WithContext(ctx).
		Model(&model.OnboardingProgress{}).
		Where("user_email = ?", email).
		Update("tenant_id", tenantID).Error
}
