package repository

import (
	"context"

	"supplierportal/internal/model"

	"gorm.io/gorm"
)

type CityRepository interface {
	Search(ctx context.Context, query, state string, limit int) ([]model.City, error)
	FindByNameAndState(ctx context.Context, name, state string) (*model.City, error)
}

type cityRepository struct {
	db *gorm.DB
}

func NewCityRepository(db *gorm.DB) CityRepository {
	return &cityRepository{db: db}
}

func (r *cityRepository) Search(ctx context.Context, query, state string, limit int) ([]model.City, error) {
	var cities []model.City
	q := GetDB(ctx, r.db).Model(&model.City{})
	if query != "" {
		q = q.Where("name ILIKE ?", query+"%")
	}
	if state != "" {
		q = q.Where("state = ?", state)
	}
	if err := q.Order("name ASC").Limit(limit).Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *cityRepository) FindByNameAndState(ctx context.Context, name, state string) (*model.City, error) {
	var city model.City
	if err := GetDB(ctx, r.db).First(&city, "name ILIKE ? AND state = ?", name, state).Error; err != nil {
		return nil, err
	}
	return &city, nil
}
