package links

import (
	"github.com/linklet/linklet/pkg/linklet/models"
	"gorm.io/gorm"
)

// Repository is the data-access surface for links. It carries no business
// rules; callers treat its errors as opaque store failures apart from the
// gorm sentinels (ErrRecordNotFound, ErrDuplicatedKey).
type Repository interface {
	Create(link *models.Link) error
	GetBySlug(slug string) (*models.Link, error)
	GetByID(id uint) (*models.Link, error)
	Update(link *models.Link) error
	Delete(id uint) error
	ListByOwner(ownerID string) ([]models.Link, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm-backed Repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(link *models.Link) error {
	return r.db.Create(link).Error
}

func (r *gormRepository) GetBySlug(slug string) (*models.Link, error) {
	var link models.Link
	if err := r.db.Where("slug = ?", slug).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *gormRepository) GetByID(id uint) (*models.Link, error) {
	var link models.Link
	if err := r.db.First(&link, id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// Update persists the full record and bumps UpdatedAt.
func (r *gormRepository) Update(link *models.Link) error {
	return r.db.Save(link).Error
}

// Delete removes the row permanently; the model carries no DeletedAt, so
// this is a hard delete.
func (r *gormRepository) Delete(id uint) error {
	return r.db.Delete(&models.Link{}, id).Error
}

func (r *gormRepository) ListByOwner(ownerID string) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}
