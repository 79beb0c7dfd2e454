package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/stockcore-go/internal/domain/document"
)

// GormDocumentRepository implements DocumentRepository using GORM. Lines
// are owned by the document: saves replace them, deletes cascade.
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GORM document repository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Save creates or updates a document with its lines
func (r *GormDocumentRepository) Save(ctx context.Context, doc *document.Document) error {
	model := documentEntityToModel(doc)

	if model.ID != 0 {
		// Replacing the owned lines keeps removed lines from lingering
		if err := r.db.WithContext(ctx).
			Where("document_id = ?", model.ID).
			Delete(&DocumentLineModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear document lines: %w", err)
		}
	}
	if err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	doc.ID = model.ID
	for i := range model.Lines {
		doc.Lines[i].ID = model.Lines[i].ID
		doc.Lines[i].DocumentID = model.ID
	}
	return nil
}

// FindByID retrieves a document with its lines
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uint) (*document.Document, error) {
	return r.findOne(ctx, r.db, "id = ?", id)
}

// FindByNumber retrieves a document by its document number
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, number string) (*document.Document, error) {
	doc, err := r.findOne(ctx, r.db, "document_number = ?", number)
	if err != nil {
		var notFound *document.ErrDocumentNotFound
		if errors.As(err, &notFound) {
			return nil, &document.ErrDocumentNotFound{Number: number}
		}
		return nil, err
	}
	return doc, nil
}

// FindForUpdate retrieves the document holding a row-level lock
func (r *GormDocumentRepository) FindForUpdate(ctx context.Context, id uint) (*document.Document, error) {
	return r.findOne(ctx, forUpdate(r.db), "id = ?", id)
}

func (r *GormDocumentRepository) findOne(ctx context.Context, db *gorm.DB, cond string, arg interface{}) (*document.Document, error) {
	var model DocumentModel
	result := db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where(cond, arg).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			if id, ok := arg.(uint); ok {
				return nil, &document.ErrDocumentNotFound{ID: id}
			}
			return nil, &document.ErrDocumentNotFound{}
		}
		return nil, fmt.Errorf("failed to find document: %w", result.Error)
	}
	return documentModelToEntity(&model), nil
}

// SetStatus updates only the status column
func (r *GormDocumentRepository) SetStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&DocumentModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to set document status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &document.ErrDocumentNotFound{ID: id}
	}
	return nil
}

// ListByKind retrieves documents of one kind, newest first
func (r *GormDocumentRepository) ListByKind(ctx context.Context, kind document.DocumentKind, limit, offset int) ([]*document.Document, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where("kind = ?", kind.String()).
		Order("document_date DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []DocumentModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]*document.Document, 0, len(models))
	for i := range models {
		docs = append(docs, documentModelToEntity(&models[i]))
	}
	return docs, nil
}

func documentModelToEntity(model *DocumentModel) *document.Document {
	doc := &document.Document{
		ID:                 model.ID,
		DocumentNumber:     model.DocumentNumber,
		DocumentDate:       model.DocumentDate,
		DocumentTypeID:     model.DocumentTypeID,
		Kind:               document.DocumentKind(model.Kind),
		Status:             model.Status,
		SupplierCode:       model.SupplierCode,
		LocationID:         model.LocationID,
		VATIncluded:        model.VATIncluded,
		TotalAmount:        model.TotalAmount,
		TotalVAT:           model.TotalVAT,
		UrgencyLevel:       document.UrgencyLevel(model.UrgencyLevel),
		RequestedBy:        model.RequestedBy,
		ConvertedToOrderID: model.ConvertedToOrderID,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
	for _, line := range model.Lines {
		doc.Lines = append(doc.Lines, document.Line{
			ID:              line.ID,
			DocumentID:      line.DocumentID,
			LineNumber:      line.LineNumber,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			Unit:            line.Unit,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			BatchNumber:     line.BatchNumber,
			ExpiryDate:      line.ExpiryDate,
			LineTotal:       line.LineTotal,
			VATAmount:       line.VATAmount,
		})
	}
	return doc
}

func documentEntityToModel(doc *document.Document) *DocumentModel {
	model := &DocumentModel{
		ID:                 doc.ID,
		DocumentNumber:     doc.DocumentNumber,
		DocumentDate:       doc.DocumentDate,
		DocumentTypeID:     doc.DocumentTypeID,
		Kind:               doc.Kind.String(),
		Status:             doc.Status,
		SupplierCode:       doc.SupplierCode,
		LocationID:         doc.LocationID,
		VATIncluded:        doc.VATIncluded,
		TotalAmount:        doc.TotalAmount,
		TotalVAT:           doc.TotalVAT,
		UrgencyLevel:       string(doc.UrgencyLevel),
		RequestedBy:        doc.RequestedBy,
		ConvertedToOrderID: doc.ConvertedToOrderID,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
	for _, line := range doc.Lines {
		model.Lines = append(model.Lines, DocumentLineModel{
			DocumentID:      doc.ID,
			LineNumber:      line.LineNumber,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			Unit:            line.Unit,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			BatchNumber:     line.BatchNumber,
			ExpiryDate:      line.ExpiryDate,
			LineTotal:       line.LineTotal,
			VATAmount:       line.VATAmount,
		})
	}
	return model
}

// GormDocumentTypeRepository implements DocumentTypeRepository using GORM
type GormDocumentTypeRepository struct {
	db *gorm.DB
}

// NewGormDocumentTypeRepository creates a new GORM document type
// repository
func NewGormDocumentTypeRepository(db *gorm.DB) *GormDocumentTypeRepository {
	return &GormDocumentTypeRepository{db: db}
}

// Save creates or updates a document type with its statuses and
// transitions
func (r *GormDocumentTypeRepository) Save(ctx context.Context, t *document.DocumentType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	model := documentTypeEntityToModel(t)
	if err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save document type: %w", err)
	}

	t.ID = model.ID
	for i := range model.Statuses {
		t.Statuses[i].ID = model.Statuses[i].ID
		t.Statuses[i].DocumentTypeID = model.ID
	}
	for i := range model.Transitions {
		t.Transitions[i].ID = model.Transitions[i].ID
		t.Transitions[i].DocumentTypeID = model.ID
	}
	return nil
}

// FindByID retrieves a document type
func (r *GormDocumentTypeRepository) FindByID(ctx context.Context, id uint) (*document.DocumentType, error) {
	var model DocumentTypeModel
	result := r.db.WithContext(ctx).
		Preload("Statuses").Preload("Transitions").
		First(&model, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &document.ErrDocumentTypeNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to find document type: %w", result.Error)
	}
	return documentTypeModelToEntity(&model), nil
}

// FindByKey retrieves a document type by its type key
func (r *GormDocumentTypeRepository) FindByKey(ctx context.Context, typeKey string) (*document.DocumentType, error) {
	var model DocumentTypeModel
	result := r.db.WithContext(ctx).
		Preload("Statuses").Preload("Transitions").
		Where("type_key = ?", typeKey).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &document.ErrDocumentTypeNotFound{TypeKey: typeKey}
		}
		return nil, fmt.Errorf("failed to find document type: %w", result.Error)
	}
	return documentTypeModelToEntity(&model), nil
}

func documentTypeModelToEntity(model *DocumentTypeModel) *document.DocumentType {
	t := &document.DocumentType{
		ID:               model.ID,
		TypeKey:          model.TypeKey,
		Name:             model.Name,
		Kind:             document.DocumentKind(model.Kind),
		RequiresApproval: model.RequiresApproval,
	}
	for _, s := range model.Statuses {
		t.Statuses = append(t.Statuses, document.StatusConfig{
			ID:                         s.ID,
			DocumentTypeID:             s.DocumentTypeID,
			Status:                     s.Status,
			IsInitial:                  s.IsInitial,
			IsFinal:                    s.IsFinal,
			IsCancellation:             s.IsCancellation,
			AllowsEditing:              s.AllowsEditing,
			CreatesInventoryMovements:  s.CreatesInventoryMovements,
			ReversesInventoryMovements: s.ReversesInventoryMovements,
			AutoCorrectMovementsOnEdit: s.AutoCorrectMovementsOnEdit,
		})
	}
	for _, tr := range model.Transitions {
		t.Transitions = append(t.Transitions, document.Transition{
			ID:             tr.ID,
			DocumentTypeID: tr.DocumentTypeID,
			FromStatus:     tr.FromStatus,
			ToStatus:       tr.ToStatus,
		})
	}
	return t
}

func documentTypeEntityToModel(t *document.DocumentType) *DocumentTypeModel {
	model := &DocumentTypeModel{
		ID:               t.ID,
		TypeKey:          t.TypeKey,
		Name:             t.Name,
		Kind:             t.Kind.String(),
		RequiresApproval: t.RequiresApproval,
	}
	for _, s := range t.Statuses {
		model.Statuses = append(model.Statuses, StatusConfigModel{
			ID:                         s.ID,
			DocumentTypeID:             t.ID,
			Status:                     s.Status,
			IsInitial:                  s.IsInitial,
			IsFinal:                    s.IsFinal,
			IsCancellation:             s.IsCancellation,
			AllowsEditing:              s.AllowsEditing,
			CreatesInventoryMovements:  s.CreatesInventoryMovements,
			ReversesInventoryMovements: s.ReversesInventoryMovements,
			AutoCorrectMovementsOnEdit: s.AutoCorrectMovementsOnEdit,
		})
	}
	for _, tr := range t.Transitions {
		model.Transitions = append(model.Transitions, TransitionConfigModel{
			ID:             tr.ID,
			DocumentTypeID: t.ID,
			FromStatus:     tr.FromStatus,
			ToStatus:       tr.ToStatus,
		})
	}
	return model
}
