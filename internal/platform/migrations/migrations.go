package migrations

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&taxCategoryRecord{},
		&taxRateRecord{},
		&settingRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&orderAdjustmentRecord{},
		&orderIdempotencyRecord{},
	)
}

// Tax category schema mirrors the taxation Postgres adapter.
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

// Settings schema mirrors the taxation settings store.
type settingRecord struct {
	Key       string    `gorm:"primaryKey;column:key;size:128"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (settingRecord) TableName() string { return "settings" }

// Order schema mirrors the orders Postgres adapter.
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

// Idempotency schema mirrors the orders idempotency store.
type orderIdempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (orderIdempotencyRecord) TableName() string { return "order_idempotency_keys" }
