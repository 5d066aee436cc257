package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository persists tax categories and their rates in PostgreSQL using GORM.
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

type taxCategoryRecord struct {
	Code      string          `gorm:"primaryKey;column:code;size:64"`
	Name      string          `gorm:"column:name"`
	Rates     []taxRateRecord `gorm:"foreignKey:CategoryCode;references:Code;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (taxCategoryRecord) TableName() string { return "tax_categories" }

type taxRateRecord struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;column:id"`
	CategoryCode    string          `gorm:"column:category_code;size:64;uniqueIndex:idx_tax_rates_category_code"`
	Code            string          `gorm:"column:code;size:64;uniqueIndex:idx_tax_rates_category_code"`
	Name            string          `gorm:"column:name"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(12,6)"`
	IncludedInPrice bool            `gorm:"column:included_in_price"`
	Zone            string          `gorm:"column:zone;size:32;index"`
	Calculator      string          `gorm:"column:calculator;size:32"`
	Position        int             `gorm:"column:position"`
}

func (taxRateRecord) TableName() string { return "tax_rates" }

// FindByCode loads a category with its rates, returning nil when absent.
func (r *CategoryRepository) FindByCode(ctx context.Context, code string) (*domain.TaxCategory, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record taxCategoryRecord
	err := r.db.WithContext(ctx).
		Preload("Rates", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&record, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Save upserts the category and replaces its rates in a single transaction.
func (r *CategoryRepository) Save(ctx context.Context, category *domain.TaxCategory) (*domain.TaxCategory, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if category == nil {
		return nil, errors.New("tax category is nil")
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	record := toCategoryRecord(category)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Rates").
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "code"}},
				DoUpdates: clause.Assignments(map[string]any{
					"name":       record.Name,
					"updated_at": gorm.Expr("NOW()"),
				}),
			}).Create(&record).Error; err != nil {
			return err
		}
		if err := tx.Where("category_code = ?", record.Code).Delete(&taxRateRecord{}).Error; err != nil {
			return err
		}
		if len(record.Rates) == 0 {
			return nil
		}
		return tx.Create(&record.Rates).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByCode(ctx, category.Code)
}

// Delete removes a category and its rates.
func (r *CategoryRepository) Delete(ctx context.Context, code string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_code = ?", code).Delete(&taxRateRecord{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&taxCategoryRecord{}, "code = ?", code)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		return nil
	})
}

// List returns all categories ordered by code.
func (r *CategoryRepository) List(ctx context.Context) ([]*domain.TaxCategory, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []taxCategoryRecord
	err := r.db.WithContext(ctx).
		Preload("Rates", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("code ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	categories := make([]*domain.TaxCategory, 0, len(records))
	for i := range records {
		categories = append(categories, records[i].toDomain())
	}
	return categories, nil
}

func (r *CategoryRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres tax category repository not configured")
	}
	return nil
}

func toCategoryRecord(category *domain.TaxCategory) taxCategoryRecord {
	record := taxCategoryRecord{Code: category.Code, Name: category.Name}
	for i, rate := range category.Rates {
		record.Rates = append(record.Rates, taxRateRecord{
			ID:              uuid.New(),
			CategoryCode:    category.Code,
			Code:            rate.Code,
			Name:            rate.Name,
			Amount:          rate.Amount,
			IncludedInPrice: rate.IncludedInPrice,
			Zone:            rate.Zone,
			Calculator:      string(rate.Calculator),
			Position:        i,
		})
	}
	return record
}

func (r taxCategoryRecord) toDomain() *domain.TaxCategory {
	category := &domain.TaxCategory{Code: r.Code, Name: r.Name}
	for _, rate := range r.Rates {
		category.Rates = append(category.Rates, domain.TaxRate{
			Code:            rate.Code,
			Name:            rate.Name,
			Amount:          rate.Amount,
			IncludedInPrice: rate.IncludedInPrice,
			Zone:            rate.Zone,
			Calculator:      domain.CalculatorKind(rate.Calculator),
		})
	}
	return category
}
