package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supplierportal/internal/model"
	"supplierportal/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BlobStorage stores an uploaded file and returns its storage path and a
// retrievable URL.
type BlobStorage interface {
	Upload(ctx context.Context, key string, data []byte, filename string) (url string, err error)
}

type FileUpload struct {
	Name string
	Data []byte
}

// UploadResult reports one file of a batch. Failed files do not abort the
// batch or undo files that already succeeded.
type UploadResult struct {
	DocName  string                  `json:"doc_name"`
	Document *model.UploadedDocument `json:"document,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

type DocumentService interface {
	Upload(ctx context.Context, supplierID string, files []FileUpload, actor Actor) ([]UploadResult, error)
}

type documentService struct {
	supplierRepo repository.SupplierRepository
	storage      BlobStorage
	log          *zap.Logger
	now          func() time.Time
	newKey       func() string
}

func NewDocumentService(supplierRepo repository.SupplierRepository, storage BlobStorage, log *zap.Logger, newKey func() string) DocumentService {
	return &documentService{
		supplierRepo: supplierRepo,
		storage:      storage,
		log:          log,
		now:          time.Now,
		newKey:       newKey,
	}
}

func (s *documentService) Upload(ctx context.Context, supplierID string, files []FileUpload, actor Actor) ([]UploadResult, error) {
	if actor.Role == model.RoleViewer {
		return nil, fmt.Errorf("%w: viewers cannot upload documents", ErrForbidden)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrValidation)
	}

	sid, err := uuid.Parse(supplierID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid supplier id", ErrValidation)
	}
	supplier, err := s.supplierRepo.FindByID(ctx, sid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, supplierID)
		}
		return nil, fmt.Errorf("failed to fetch supplier: %w", err)
	}
	if !actor.IsAdmin() && actor.Email != supplier.SubmittedBy {
		return nil, fmt.Errorf("%w: only admins or the original submitter may upload documents", ErrForbidden)
	}

	results := make([]UploadResult, 0, len(files))
	for _, file := range files {
		result := UploadResult{DocName: file.Name}

		storagePath := fmt.Sprintf("supplier_documents/%s/%s-%s", supplier.ID, s.newKey(), file.Name)
		url, err := s.storage.Upload(ctx, storagePath, file.Data, file.Name)
		if err != nil {
			s.log.Warn("document upload failed",
				zap.String("supplier_id", supplierID),
				zap.String("doc_name", file.Name),
				zap.Error(err))
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		doc := &model.UploadedDocument{
			SupplierID:  supplier.ID,
			DocName:     file.Name,
			StoragePath: storagePath,
			URL:         url,
			UploadedAt:  s.now(),
		}
		if err := s.supplierRepo.AddDocument(ctx, doc); err != nil {
			result.Error = fmt.Sprintf("stored but not recorded: %v", err)
			results = append(results, result)
			continue
		}

		result.Document = doc
		results = append(results, result)
	}

	return results, nil
}
