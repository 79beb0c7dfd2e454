package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocationModel represents the locations table
type LocationModel struct {
	ID                      uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Code                    string          `gorm:"column:code;unique;not null"`
	Name                    string          `gorm:"column:name;not null"`
	AllowNegativeStock      bool            `gorm:"column:allow_negative_stock;not null;default:false"`
	DefaultMarkupPercentage decimal.Decimal `gorm:"column:default_markup_percentage;type:decimal(8,2);not null;default:0"`
	BatchTrackingMode       string          `gorm:"column:batch_tracking_mode;not null;default:'OPTIONAL'"`
}

func (LocationModel) TableName() string {
	return "locations"
}

// ProductModel represents the products table
type ProductModel struct {
	ID              uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Code            string          `gorm:"column:code;unique;not null"`
	Name            string          `gorm:"column:name;not null"`
	BaseUnit        string          `gorm:"column:base_unit"`
	UnitType        string          `gorm:"column:unit_type;not null"`
	TaxGroup        string          `gorm:"column:tax_group"`
	TaxRate         decimal.Decimal `gorm:"column:tax_rate;type:decimal(8,2);not null;default:0"`
	LifecycleStatus string          `gorm:"column:lifecycle_status;not null;default:'NEW'"`
	SalesBlocked    bool            `gorm:"column:sales_blocked;not null;default:false"`
	PurchaseBlocked bool            `gorm:"column:purchase_blocked;not null;default:false"`
	TrackBatches    bool            `gorm:"column:track_batches;not null;default:false"`
	TrackSerials    bool            `gorm:"column:track_serials;not null;default:false"`
}

func (ProductModel) TableName() string {
	return "products"
}

// MovementModel represents the stock_movements table: the append-only
// ledger. Rows are never updated or deleted.
type MovementModel struct {
	ID                    string           `gorm:"column:id;primaryKey"`
	LocationID            uint             `gorm:"column:location_id;not null;index:idx_movements_key"`
	ProductID             uint             `gorm:"column:product_id;not null;index:idx_movements_key"`
	MovementType          string           `gorm:"column:movement_type;not null"`
	Quantity              decimal.Decimal  `gorm:"column:quantity;type:decimal(18,4);not null"`
	CostPrice             decimal.Decimal  `gorm:"column:cost_price;type:decimal(18,4);not null"`
	SalePrice             *decimal.Decimal `gorm:"column:sale_price;type:decimal(18,2)"`
	ProfitAmount          *decimal.Decimal `gorm:"column:profit_amount;type:decimal(18,2)"`
	ProfitMargin          *decimal.Decimal `gorm:"column:profit_margin;type:decimal(8,2)"`
	BatchNumber           string           `gorm:"column:batch_number;index"`
	ExpiryDate            *time.Time       `gorm:"column:expiry_date"`
	SourceKind            string           `gorm:"column:source_kind;not null;index:idx_movements_source"`
	SourceNumber          string           `gorm:"column:source_number;not null;index:idx_movements_source"`
	CounterpartLocationID *uint            `gorm:"column:counterpart_location_id"`
	TransferRef           string           `gorm:"column:transfer_ref;index"`
	Reason                string           `gorm:"column:reason;type:text"`
	MovementDate          time.Time        `gorm:"column:movement_date;not null;index"`
	CreatedAt             time.Time        `gorm:"column:created_at;not null"`
	CreatedBy             string           `gorm:"column:created_by;not null"`
}

func (MovementModel) TableName() string {
	return "stock_movements"
}

// ItemModel represents the inventory_items table: the balance cache,
// one row per (location, product)
type ItemModel struct {
	LocationID       uint             `gorm:"column:location_id;primaryKey;autoIncrement:false"`
	ProductID        uint             `gorm:"column:product_id;primaryKey;autoIncrement:false"`
	CurrentQty       decimal.Decimal  `gorm:"column:current_qty;type:decimal(18,4);not null;default:0"`
	ReservedQty      decimal.Decimal  `gorm:"column:reserved_qty;type:decimal(18,4);not null;default:0"`
	AvgCost          decimal.Decimal  `gorm:"column:avg_cost;type:decimal(18,4);not null;default:0"`
	LastPurchaseCost *decimal.Decimal `gorm:"column:last_purchase_cost;type:decimal(18,4)"`
	LastPurchaseDate *time.Time       `gorm:"column:last_purchase_date"`
	LastSalePrice    *decimal.Decimal `gorm:"column:last_sale_price;type:decimal(18,2)"`
	LastSaleDate     *time.Time       `gorm:"column:last_sale_date"`
	MinStockLevel    decimal.Decimal  `gorm:"column:min_stock_level;type:decimal(18,4);not null;default:0"`
	MaxStockLevel    decimal.Decimal  `gorm:"column:max_stock_level;type:decimal(18,4);not null;default:0"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;not null"`
}

func (ItemModel) TableName() string {
	return "inventory_items"
}

// BatchModel represents the inventory_batches table: the batch cache.
// The expiry participates in the key but may be null, so a surrogate ID
// with a unique index stands in for a composite primary key.
type BatchModel struct {
	ID             uint            `gorm:"column:id;primaryKey;autoIncrement"`
	LocationID     uint            `gorm:"column:location_id;not null;uniqueIndex:idx_batch_key"`
	ProductID      uint            `gorm:"column:product_id;not null;uniqueIndex:idx_batch_key"`
	BatchNumber    string          `gorm:"column:batch_number;not null;uniqueIndex:idx_batch_key"`
	ExpiryDate     *time.Time      `gorm:"column:expiry_date;uniqueIndex:idx_batch_key"`
	ReceivedQty    decimal.Decimal `gorm:"column:received_qty;type:decimal(18,4);not null"`
	RemainingQty   decimal.Decimal `gorm:"column:remaining_qty;type:decimal(18,4);not null"`
	CostPrice      decimal.Decimal `gorm:"column:cost_price;type:decimal(18,4);not null"`
	ReceivedDate   time.Time       `gorm:"column:received_date;not null"`
	IsUnknownBatch bool            `gorm:"column:is_unknown_batch;not null;default:false"`
	ConversionDate *time.Time      `gorm:"column:conversion_date"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;not null"`
}

func (BatchModel) TableName() string {
	return "inventory_batches"
}

// BasePriceModel represents the base_prices table
type BasePriceModel struct {
	ID               uint            `gorm:"column:id;primaryKey;autoIncrement"`
	LocationID       uint            `gorm:"column:location_id;not null;uniqueIndex:idx_base_price_key"`
	ProductID        uint            `gorm:"column:product_id;not null;uniqueIndex:idx_base_price_key"`
	Method           string          `gorm:"column:method;not null"`
	BasePrice        decimal.Decimal `gorm:"column:base_price;type:decimal(18,2);not null;default:0"`
	MarkupPercentage decimal.Decimal `gorm:"column:markup_percentage;type:decimal(8,2);not null;default:0"`
	EffectivePrice   decimal.Decimal `gorm:"column:effective_price;type:decimal(18,2);not null;default:0"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;not null"`
}

func (BasePriceModel) TableName() string {
	return "base_prices"
}

// GroupPriceModel represents the group_prices table
type GroupPriceModel struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	LocationID  uint            `gorm:"column:location_id;not null;index:idx_group_price_key"`
	ProductID   uint            `gorm:"column:product_id;not null;index:idx_group_price_key"`
	PriceGroup  string          `gorm:"column:price_group;not null;index:idx_group_price_key"`
	MinQuantity decimal.Decimal `gorm:"column:min_quantity;type:decimal(18,4);not null;default:0"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(18,2);not null"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
}

func (GroupPriceModel) TableName() string {
	return "group_prices"
}

// StepPriceModel represents the step_prices table
type StepPriceModel struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	LocationID  uint            `gorm:"column:location_id;not null;index:idx_step_price_key"`
	ProductID   uint            `gorm:"column:product_id;not null;index:idx_step_price_key"`
	MinQuantity decimal.Decimal `gorm:"column:min_quantity;type:decimal(18,4);not null"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(18,2);not null"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
}

func (StepPriceModel) TableName() string {
	return "step_prices"
}

// PromotionModel represents the promotions table
type PromotionModel struct {
	ID               uint             `gorm:"column:id;primaryKey;autoIncrement"`
	LocationID       uint             `gorm:"column:location_id;not null;index:idx_promotion_key"`
	ProductID        uint             `gorm:"column:product_id;not null;index:idx_promotion_key"`
	StartDate        time.Time        `gorm:"column:start_date;not null"`
	EndDate          time.Time        `gorm:"column:end_date;not null"`
	PromotionalPrice decimal.Decimal  `gorm:"column:promotional_price;type:decimal(18,2);not null"`
	MinQuantity      *decimal.Decimal `gorm:"column:min_quantity;type:decimal(18,4)"`
	MaxQuantity      *decimal.Decimal `gorm:"column:max_quantity;type:decimal(18,4)"`
	CustomerGroup    string           `gorm:"column:customer_group"`
	Priority         int              `gorm:"column:priority;not null;default:0"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
}

func (PromotionModel) TableName() string {
	return "promotions"
}

// PackagingPriceModel represents the packaging_prices table
type PackagingPriceModel struct {
	ID               uint            `gorm:"column:id;primaryKey;autoIncrement"`
	LocationID       uint            `gorm:"column:location_id;not null;uniqueIndex:idx_packaging_price_key"`
	PackagingUnit    string          `gorm:"column:packaging_unit;not null;uniqueIndex:idx_packaging_price_key"`
	ProductID        uint            `gorm:"column:product_id;not null;uniqueIndex:idx_packaging_price_key"`
	Method           string          `gorm:"column:method;not null"`
	Price            decimal.Decimal `gorm:"column:price;type:decimal(18,2);not null;default:0"`
	MarkupPercentage decimal.Decimal `gorm:"column:markup_percentage;type:decimal(8,2);not null;default:0"`
	EffectivePrice   decimal.Decimal `gorm:"column:effective_price;type:decimal(18,2);not null;default:0"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true"`
}

func (PackagingPriceModel) TableName() string {
	return "packaging_prices"
}

// BarcodeModel represents the barcodes table
type BarcodeModel struct {
	Code             string          `gorm:"column:code;primaryKey"`
	ProductID        uint            `gorm:"column:product_id;not null;index"`
	PackagingUnit    string          `gorm:"column:packaging_unit"`
	ConversionFactor decimal.Decimal `gorm:"column:conversion_factor;type:decimal(18,4);not null;default:1"`
}

func (BarcodeModel) TableName() string {
	return "barcodes"
}

// CustomerModel represents the customers table
type CustomerModel struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Code       string `gorm:"column:code;unique;not null"`
	PriceGroup string `gorm:"column:price_group"`
	Groups     string `gorm:"column:groups;type:text"` // JSON array as text
}

func (CustomerModel) TableName() string {
	return "customers"
}

// DocumentTypeModel represents the document_types table
type DocumentTypeModel struct {
	ID               uint                    `gorm:"column:id;primaryKey;autoIncrement"`
	TypeKey          string                  `gorm:"column:type_key;unique;not null"`
	Name             string                  `gorm:"column:name;not null"`
	Kind             string                  `gorm:"column:kind;not null"`
	RequiresApproval bool                    `gorm:"column:requires_approval;not null;default:false"`
	Statuses         []StatusConfigModel     `gorm:"foreignKey:DocumentTypeID;constraint:OnDelete:CASCADE"`
	Transitions      []TransitionConfigModel `gorm:"foreignKey:DocumentTypeID;constraint:OnDelete:CASCADE"`
}

func (DocumentTypeModel) TableName() string {
	return "document_types"
}

// StatusConfigModel represents the document_statuses table
type StatusConfigModel struct {
	ID                         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentTypeID             uint   `gorm:"column:document_type_id;not null;uniqueIndex:idx_status_key"`
	Status                     string `gorm:"column:status;not null;uniqueIndex:idx_status_key"`
	IsInitial                  bool   `gorm:"column:is_initial;not null;default:false"`
	IsFinal                    bool   `gorm:"column:is_final;not null;default:false"`
	IsCancellation             bool   `gorm:"column:is_cancellation;not null;default:false"`
	AllowsEditing              bool   `gorm:"column:allows_editing;not null;default:false"`
	CreatesInventoryMovements  bool   `gorm:"column:creates_inventory_movements;not null;default:false"`
	ReversesInventoryMovements bool   `gorm:"column:reverses_inventory_movements;not null;default:false"`
	AutoCorrectMovementsOnEdit bool   `gorm:"column:auto_correct_movements_on_edit;not null;default:false"`
}

func (StatusConfigModel) TableName() string {
	return "document_statuses"
}

// TransitionConfigModel represents the document_transitions table
type TransitionConfigModel struct {
	ID             uint   `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentTypeID uint   `gorm:"column:document_type_id;not null;uniqueIndex:idx_transition_key"`
	FromStatus     string `gorm:"column:from_status;not null;uniqueIndex:idx_transition_key"`
	ToStatus       string `gorm:"column:to_status;not null;uniqueIndex:idx_transition_key"`
}

func (TransitionConfigModel) TableName() string {
	return "document_transitions"
}

// DocumentModel represents the documents table
type DocumentModel struct {
	ID                 uint                `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentNumber     string              `gorm:"column:document_number;unique;not null"`
	DocumentDate       time.Time           `gorm:"column:document_date;not null"`
	DocumentTypeID     uint                `gorm:"column:document_type_id;not null"`
	Kind               string              `gorm:"column:kind;not null;index"`
	Status             string              `gorm:"column:status;not null"`
	SupplierCode       string              `gorm:"column:supplier_code"`
	LocationID         uint                `gorm:"column:location_id;not null"`
	VATIncluded        bool                `gorm:"column:vat_included;not null;default:false"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:decimal(18,2);not null;default:0"`
	TotalVAT           decimal.Decimal     `gorm:"column:total_vat;type:decimal(18,2);not null;default:0"`
	UrgencyLevel       string              `gorm:"column:urgency_level"`
	RequestedBy        string              `gorm:"column:requested_by"`
	ConvertedToOrderID *uint               `gorm:"column:converted_to_order_id"`
	Lines              []DocumentLineModel `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;not null"`
}

func (DocumentModel) TableName() string {
	return "documents"
}

// DocumentLineModel represents the document_lines table
type DocumentLineModel struct {
	ID              uint            `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentID      uint            `gorm:"column:document_id;not null;uniqueIndex:idx_line_key"`
	LineNumber      int             `gorm:"column:line_number;not null;uniqueIndex:idx_line_key"`
	ProductID       uint            `gorm:"column:product_id;not null"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:decimal(18,4);not null"`
	Unit            string          `gorm:"column:unit"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:decimal(8,2);not null;default:0"`
	BatchNumber     string          `gorm:"column:batch_number"`
	ExpiryDate      *time.Time      `gorm:"column:expiry_date"`
	LineTotal       decimal.Decimal `gorm:"column:line_total;type:decimal(18,2);not null;default:0"`
	VATAmount       decimal.Decimal `gorm:"column:vat_amount;type:decimal(18,2);not null;default:0"`
}

func (DocumentLineModel) TableName() string {
	return "document_lines"
}

// ApprovalRuleModel represents the approval_rules table
type ApprovalRuleModel struct {
	ID             uint            `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentTypeID uint            `gorm:"column:document_type_id;not null;index:idx_rule_key"`
	FromStatus     string          `gorm:"column:from_status;not null;index:idx_rule_key"`
	ToStatus       string          `gorm:"column:to_status;not null"`
	MinAmount      decimal.Decimal `gorm:"column:min_amount;type:decimal(18,2);not null;default:0"`
	MaxAmount      decimal.Decimal `gorm:"column:max_amount;type:decimal(18,2);not null;default:0"`
	ApproverSet    string          `gorm:"column:approver_set;type:text;not null"` // JSON array as text
	Priority       int             `gorm:"column:priority;not null;default:0"`
	Level          int             `gorm:"column:level;not null;default:1"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
}

func (ApprovalRuleModel) TableName() string {
	return "approval_rules"
}

// ApprovalLogModel represents the approval_logs table. Rows are
// append-only.
type ApprovalLogModel struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentID  uint      `gorm:"column:document_id;not null;index"`
	Actor       string    `gorm:"column:actor;not null"`
	FromStatus  string    `gorm:"column:from_status;not null"`
	ToStatus    string    `gorm:"column:to_status;not null"`
	RuleID      *uint     `gorm:"column:rule_id"`
	Comments    string    `gorm:"column:comments;type:text"`
	Correlation string    `gorm:"column:correlation"`
	Timestamp   time.Time `gorm:"column:timestamp;not null"`
}

func (ApprovalLogModel) TableName() string {
	return "approval_logs"
}

// NumberingConfigModel represents the numbering_configs table
type NumberingConfigModel struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	DocumentType  string `gorm:"column:document_type;not null;index"`
	NumberingType string `gorm:"column:numbering_type;not null"`
	Prefix        string `gorm:"column:prefix"`
	DigitsCount   int    `gorm:"column:digits_count;not null;default:6"`
	CurrentNumber int64  `gorm:"column:current_number;not null;default:0"`
	MaxNumber     int64  `gorm:"column:max_number;not null;default:0"`
	ResetYearly   bool   `gorm:"column:reset_yearly;not null;default:false"`
	LastResetYear int    `gorm:"column:last_reset_year;not null;default:0"`
	LocationID    *uint  `gorm:"column:location_id"`
	UserName      string `gorm:"column:user_name"`
}

func (NumberingConfigModel) TableName() string {
	return "numbering_configs"
}

// AllModels lists every model for schema migration
func AllModels() []interface{} {
	return []interface{}{
		&LocationModel{},
		&ProductModel{},
		&MovementModel{},
		&ItemModel{},
		&BatchModel{},
		&BasePriceModel{},
		&GroupPriceModel{},
		&StepPriceModel{},
		&PromotionModel{},
		&PackagingPriceModel{},
		&BarcodeModel{},
		&CustomerModel{},
		&DocumentTypeModel{},
		&StatusConfigModel{},
		&TransitionConfigModel{},
		&DocumentModel{},
		&DocumentLineModel{},
		&ApprovalRuleModel{},
		&ApprovalLogModel{},
		&NumberingConfigModel{},
	}
}
