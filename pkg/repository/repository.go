package repository

import (
	"context"
	"errors"

	"creatorlink-platform/pkg/db/option"

	"gorm.io/gorm"
)

// Repository is a thin generic store over gorm. The query argument is a
// struct filter (zero fields are ignored); anything beyond equality goes
// through option.QueryOption.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID string, resource any) error
	BatchCreate(ctx context.Context, resources []*T) error
	BatchUpdate(ctx context.Context, resources []*T) error
	Count(ctx context.Context, query *T) (int64, error)
}

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

// WithTrx returns a store bound to the given transaction handle so multiple
// stores can share one unit of work.
func (s *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	if tx == nil {
		return s
	}
	return &store[T]{db: tx}
}

func (s *store[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	var resources []*T
	tx := option.Apply(s.db.WithContext(ctx).Where(query), opts...)
	if err := tx.Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

// FindOne returns (nil, nil) when no row matches; callers treat absence as a
// domain condition, not an error.
func (s *store[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	var resource T
	tx := option.Apply(s.db.WithContext(ctx).Where(query), opts...)
	if err := tx.First(&resource).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resource, nil
}

func (s *store[T]) Create(ctx context.Context, resource *T) error {
	return s.db.WithContext(ctx).Create(resource).Error
}

func (s *store[T]) Update(ctx context.Context, resourceID string, resource any) error {
	return s.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ?", resourceID).
		Updates(resource).Error
}

func (s *store[T]) BatchCreate(ctx context.Context, resources []*T) error {
	if len(resources) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&resources).Error
}

func (s *store[T]) BatchUpdate(ctx context.Context, resources []*T) error {
	for _, resource := range resources {
		if err := s.db.WithContext(ctx).Save(resource).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *store[T]) Count(ctx context.Context, query *T) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(new(T)).Where(query).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
