package repository

import (
	"context"

	"supplierportal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	Update(ctx context.Context, supplier *model.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	// FindByIDForUpdate locks the supplier row for the duration of the
	// surrounding transaction, serializing concurrent approvals.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindByCNPJ(ctx context.Context, cnpj string) (*model.Supplier, error)
	List(ctx context.Context, status, search string, page, limit int) ([]model.Supplier, int64, error)
	AddDocument(ctx context.Context, doc *model.UploadedDocument) error
	RemoveDocument(ctx context.Context, docID uuid.UUID) error
}

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Create(supplier).Error
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Save(supplier).Error
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Supplier{}).Error
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).Preload("UploadedDocuments").First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) FindByCNPJ(ctx context.Context, cnpj string) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).First(&supplier, "cnpj = ?", cnpj).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) List(ctx context.Context, status, search string, page, limit int) ([]model.Supplier, int64, error) {
	var suppliers []model.Supplier
	var total int64

	db := GetDB(ctx, r.db)

	applyFilters := func(q *gorm.DB) *gorm.DB {
		if status != "" {
			q = q.Where("status = ?", status)
		}
		if search != "" {
			q = q.Where("company_name ILIKE ? OR trade_name ILIKE ? OR cnpj ILIKE ? OR email ILIKE ?",
				"%"+search+"%", "%"+search+"%", "%"+search+"%", "%"+search+"%")
		}
		return q
	}

	if err := applyFilters(db.Model(&model.Supplier{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := applyFilters(db.Model(&model.Supplier{}).Preload("UploadedDocuments")).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}

	return suppliers, total, nil
}

func (r *supplierRepository) AddDocument(ctx context.Context, doc *model.UploadedDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *supplierRepository) RemoveDocument(ctx context.Context, docID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", docID).Delete(&model.UploadedDocument{}).Error
}
