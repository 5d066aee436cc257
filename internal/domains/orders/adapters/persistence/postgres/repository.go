package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-order-taxes/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate root. Total and TaxTotal are snapshots
// for reporting; the domain recomputes them from the adjustments.
type orderRecord struct {
	ID          int64                   `gorm:"primaryKey;autoIncrement;column:id"`
	Version     int64                   `gorm:"column:version;not null;default:1"`
	Zone        string                  `gorm:"column:zone;size:32"`
	Currency    string                  `gorm:"column:currency;size:3"`
	State       string                  `gorm:"column:state;type:varchar(16);index"`
	Total       int64                   `gorm:"column:total"`
	TaxTotal    int64                   `gorm:"column:tax_total"`
	Items       []orderItemRecord       `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Adjustments []orderAdjustmentRecord `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time               `gorm:"column:created_at;index"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;index"`
}

func (orderRecord) TableName() string { return "orders" }

// orderItemRecord stores an item with the identifiers of its units.
type orderItemRecord struct {
	OrderID         int64         `gorm:"primaryKey;autoIncrement:false;column:order_id"`
	ID              int64         `gorm:"primaryKey;autoIncrement:false;column:id"`
	VariantCode     string        `gorm:"column:variant_code;size:128"`
	VariantName     string        `gorm:"column:variant_name"`
	TaxCategoryCode string        `gorm:"column:tax_category_code;size:64;index"`
	UnitPrice       int64         `gorm:"column:unit_price"`
	UnitIDs         pq.Int64Array `gorm:"column:unit_ids;type:bigint[]"`
	Position        int           `gorm:"column:position"`
}

func (orderItemRecord) TableName() string { return "order_items" }

type orderAdjustmentRecord struct {
	ID         string `gorm:"primaryKey;column:id;size:64"`
	OrderID    int64  `gorm:"column:order_id;index"`
	Type       string `gorm:"column:type;type:varchar(32);index"`
	Amount     int64  `gorm:"column:amount"`
	Neutral    bool   `gorm:"column:neutral"`
	Label      string `gorm:"column:label"`
	OriginCode string `gorm:"column:origin_code;size:64"`
	Source     string `gorm:"column:source;size:64"`
	OwnerKind  string `gorm:"column:owner_kind;type:varchar(8)"`
	UnitID     int64  `gorm:"column:unit_id"`
	Position   int    `gorm:"column:position"`
}

func (orderAdjustmentRecord) TableName() string { return "order_adjustments" }

// Save writes the order row and replaces its items and adjustments in one
// transaction. Existing rows are only updated at the version the order was
// loaded at; otherwise ports.ErrStaleOrder is returned and nothing changes.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.writeOrderRow(tx, &record); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", record.ID).Delete(&orderItemRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", record.ID).Delete(&orderAdjustmentRecord{}).Error; err != nil {
			return err
		}
		for i := range record.Items {
			record.Items[i].OrderID = record.ID
		}
		for i := range record.Adjustments {
			record.Adjustments[i].OrderID = record.ID
		}
		if len(record.Items) > 0 {
			if err := tx.Create(&record.Items).Error; err != nil {
				return err
			}
		}
		if len(record.Adjustments) > 0 {
			if err := tx.Create(&record.Adjustments).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// writeOrderRow inserts new orders at version 1 and updates existing ones
// with a compare-and-swap on the version column.
func (r *Repository) writeOrderRow(tx *gorm.DB, record *orderRecord) error {
	if record.ID != 0 && record.Version != 0 {
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND version = ?", record.ID, record.Version).
			Updates(map[string]any{
				"version":    gorm.Expr("version + 1"),
				"zone":       record.Zone,
				"currency":   record.Currency,
				"state":      record.State,
				"total":      record.Total,
				"tax_total":  record.TaxTotal,
				"updated_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrStaleOrder
		}
		return nil
	}
	record.Version = 1
	if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrStaleOrder
		}
		return err
	}
	return nil
}

// GetByID fetches an order with its items and adjustments.
func (r *Repository) GetByID(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.preload(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

// Delete removes an order and its children.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&orderAdjustmentRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&orderItemRecord{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&orderRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		return nil
	})
}

// List returns all orders ordered by identifier.
func (r *Repository) List(ctx context.Context) ([]*projection.Projection[*domain.Order], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.preload(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	result := make([]*projection.Projection[*domain.Order], 0, len(records))
	for i := range records {
		result = append(result, records[i].toProjection())
	}
	return result, nil
}

func (r *Repository) preload(ctx context.Context) *gorm.DB {
	byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }
	return r.db.WithContext(ctx).
		Preload("Items", byPosition).
		Preload("Adjustments", byPosition)
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:       order.ID,
		Version:  order.Version,
		Zone:     order.Zone,
		Currency: order.Currency,
		State:    string(order.State),
		Total:    order.Total(),
		TaxTotal: order.TaxTotal(),
	}
	for i, item := range order.Items {
		units := order.UnitsOf(item.ID)
		ids := make(pq.Int64Array, 0, len(units))
		for _, unit := range units {
			ids = append(ids, unit.ID)
		}
		rec.Items = append(rec.Items, orderItemRecord{
			OrderID:         order.ID,
			ID:              item.ID,
			VariantCode:     item.Variant.Code,
			VariantName:     item.Variant.Name,
			TaxCategoryCode: item.Variant.TaxCategoryCode,
			UnitPrice:       item.UnitPrice,
			UnitIDs:         ids,
			Position:        i,
		})
	}
	for i, adj := range order.Adjustments {
		id := adj.ID
		if id == "" {
			id = uuid.NewString()
		}
		rec.Adjustments = append(rec.Adjustments, orderAdjustmentRecord{
			ID:         id,
			OrderID:    order.ID,
			Type:       string(adj.Type),
			Amount:     adj.Amount,
			Neutral:    adj.Neutral,
			Label:      adj.Label,
			OriginCode: adj.OriginCode,
			Source:     adj.Source,
			OwnerKind:  string(adj.Owner.Kind),
			UnitID:     adj.Owner.UnitID,
			Position:   i,
		})
	}
	return rec
}

func (r orderRecord) toProjection() *projection.Projection[*domain.Order] {
	return &projection.Projection[*domain.Order]{
		Entity:   r.toDomain(),
		Metadata: projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
	}
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:       r.ID,
		Version:  r.Version,
		Zone:     r.Zone,
		Currency: r.Currency,
		State:    domain.State(r.State),
	}
	items := append([]orderItemRecord(nil), r.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	for _, item := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ID: item.ID,
			Variant: domain.ProductVariant{
				Code:            item.VariantCode,
				Name:            item.VariantName,
				TaxCategoryCode: item.TaxCategoryCode,
			},
			UnitPrice: item.UnitPrice,
		})
		for _, unitID := range item.UnitIDs {
			order.Units = append(order.Units, domain.OrderItemUnit{ID: unitID, ItemID: item.ID})
		}
	}
	adjustments := append([]orderAdjustmentRecord(nil), r.Adjustments...)
	sort.SliceStable(adjustments, func(i, j int) bool { return adjustments[i].Position < adjustments[j].Position })
	for _, adj := range adjustments {
		order.Adjustments = append(order.Adjustments, domain.Adjustment{
			ID:         adj.ID,
			Type:       domain.AdjustmentType(adj.Type),
			Amount:     adj.Amount,
			Neutral:    adj.Neutral,
			Label:      adj.Label,
			OriginCode: adj.OriginCode,
			Source:     adj.Source,
			Owner:      domain.Owner{Kind: domain.OwnerKind(adj.OwnerKind), UnitID: adj.UnitID},
		})
	}
	return order
}
