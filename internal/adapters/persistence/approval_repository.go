package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/stockcore-go/internal/domain/approval"
)

// GormApprovalRuleRepository implements RuleRepository using GORM
type GormApprovalRuleRepository struct {
	db *gorm.DB
}

// NewGormApprovalRuleRepository creates a new GORM approval rule
// repository
func NewGormApprovalRuleRepository(db *gorm.DB) *GormApprovalRuleRepository {
	return &GormApprovalRuleRepository{db: db}
}

// Save creates or updates a rule
func (r *GormApprovalRuleRepository) Save(ctx context.Context, rule *approval.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	approversJSON, err := json.Marshal(rule.ApproverSet)
	if err != nil {
		return fmt.Errorf("failed to marshal approver set: %w", err)
	}
	model := &ApprovalRuleModel{
		ID:             rule.ID,
		DocumentTypeID: rule.DocumentTypeID,
		FromStatus:     rule.FromStatus,
		ToStatus:       rule.ToStatus,
		MinAmount:      rule.MinAmount,
		MaxAmount:      rule.MaxAmount,
		ApproverSet:    string(approversJSON),
		Priority:       rule.Priority,
		Level:          rule.Level,
		IsActive:       rule.IsActive,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save approval rule: %w", err)
	}
	rule.ID = model.ID
	return nil
}

// FindForTransition retrieves active rules of the document type for the
// from-status, ordered by priority descending
func (r *GormApprovalRuleRepository) FindForTransition(ctx context.Context, documentTypeID uint, fromStatus string) ([]*approval.Rule, error) {
	var models []ApprovalRuleModel
	result := r.db.WithContext(ctx).
		Where("document_type_id = ? AND from_status = ? AND is_active = ?", documentTypeID, fromStatus, true).
		Order("priority DESC, id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find approval rules: %w", result.Error)
	}
	return ruleModelsToEntities(models)
}

// FindForType retrieves all active rules of the document type
func (r *GormApprovalRuleRepository) FindForType(ctx context.Context, documentTypeID uint) ([]*approval.Rule, error) {
	var models []ApprovalRuleModel
	result := r.db.WithContext(ctx).
		Where("document_type_id = ? AND is_active = ?", documentTypeID, true).
		Order("priority DESC, id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find approval rules: %w", result.Error)
	}
	return ruleModelsToEntities(models)
}

func ruleModelsToEntities(models []ApprovalRuleModel) ([]*approval.Rule, error) {
	rules := make([]*approval.Rule, 0, len(models))
	for _, model := range models {
		var approvers []string
		if model.ApproverSet != "" {
			if err := json.Unmarshal([]byte(model.ApproverSet), &approvers); err != nil {
				return nil, fmt.Errorf("failed to unmarshal approver set for rule %d: %w", model.ID, err)
			}
		}
		rules = append(rules, &approval.Rule{
			ID:             model.ID,
			DocumentTypeID: model.DocumentTypeID,
			FromStatus:     model.FromStatus,
			ToStatus:       model.ToStatus,
			MinAmount:      model.MinAmount,
			MaxAmount:      model.MaxAmount,
			ApproverSet:    approvers,
			Priority:       model.Priority,
			Level:          model.Level,
			IsActive:       model.IsActive,
		})
	}
	return rules, nil
}

// GormApprovalLogRepository implements LogRepository using GORM. Entries
// are append-only.
type GormApprovalLogRepository struct {
	db *gorm.DB
}

// NewGormApprovalLogRepository creates a new GORM approval log repository
func NewGormApprovalLogRepository(db *gorm.DB) *GormApprovalLogRepository {
	return &GormApprovalLogRepository{db: db}
}

// Create appends a log entry
func (r *GormApprovalLogRepository) Create(ctx context.Context, entry *approval.LogEntry) error {
	model := &ApprovalLogModel{
		DocumentID:  entry.DocumentID,
		Actor:       entry.Actor,
		FromStatus:  entry.FromStatus,
		ToStatus:    entry.ToStatus,
		RuleID:      entry.RuleID,
		Comments:    entry.Comments,
		Correlation: entry.Correlation,
		Timestamp:   entry.Timestamp,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create approval log: %w", err)
	}
	entry.ID = model.ID
	return nil
}

// FindByDocument retrieves the audit trail of a document, oldest first
func (r *GormApprovalLogRepository) FindByDocument(ctx context.Context, documentID uint) ([]*approval.LogEntry, error) {
	var models []ApprovalLogModel
	result := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("timestamp ASC, id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find approval logs: %w", result.Error)
	}

	entries := make([]*approval.LogEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, &approval.LogEntry{
			ID:          model.ID,
			DocumentID:  model.DocumentID,
			Actor:       model.Actor,
			FromStatus:  model.FromStatus,
			ToStatus:    model.ToStatus,
			RuleID:      model.RuleID,
			Comments:    model.Comments,
			Correlation: model.Correlation,
			Timestamp:   model.Timestamp,
		})
	}
	return entries, nil
}
