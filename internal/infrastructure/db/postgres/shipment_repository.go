package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

const uniqueViolation = "23505"

// jsonb stores a value as a JSONB column. A NULL column leaves Valid false.
type jsonb[T any] struct {
	V     T
	Valid bool
}

func someJSON[T any](v T) jsonb[T] { return jsonb[T]{V: v, Valid: true} }

func optionalJSON[T any](v *T) jsonb[T] {
	if v == nil {
		return jsonb[T]{}
	}
	return someJSON(*v)
}

func (j jsonb[T]) Value() (driver.Value, error) {
	if !j.Valid {
		return nil, nil
	}
	return json.Marshal(j.V)
}

func (j *jsonb[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		j.Valid = false
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("jsonb: unsupported source %T", src)
	}
	if err := json.Unmarshal(raw, &j.V); err != nil {
		return err
	}
	j.Valid = true
	return nil
}

func (j jsonb[T]) ptr() *T {
	if !j.Valid {
		return nil
	}
	v := j.V
	return &v
}

type shipmentRow struct {
	ID                    string                      `db:"id"`
	TrackingNumber        string                      `db:"tracking_number"`
	OwnerID               string                      `db:"owner_id"`
	BookedBy              string                      `db:"booked_by"`
	DriverID              string                      `db:"driver_id"`
	ContainerID           string                      `db:"container_id"`
	Status                string                      `db:"status"`
	PaymentStatus         string                      `db:"payment_status"`
	PaymentMethod         string                      `db:"payment_method"`
	Price                 decimal.Decimal             `db:"price"`
	PickupAddress         jsonb[domain.Address]       `db:"pickup_address"`
	DeliveryAddress       jsonb[domain.Address]       `db:"delivery_address"`
	ReceiverName          string                      `db:"receiver_name"`
	ReceiverPhoneNumber   string                      `db:"receiver_phone_number"`
	ReceiverEmail         string                      `db:"receiver_email"`
	DeliveryType          string                      `db:"delivery_type"`
	PackageType           string                      `db:"package_type"`
	PackageDescription    string                      `db:"package_description"`
	ServiceType           string                      `db:"service_type"`
	Weight                float64                     `db:"weight"`
	Dimensions            jsonb[domain.Dimensions]    `db:"dimensions"`
	PriceGuide            jsonb[domain.PriceGuideRef] `db:"price_guide"`
	Fragile               bool                        `db:"fragile"`
	Notes                 string                      `db:"notes"`
	ScheduledPickupTime   sql.NullTime                `db:"scheduled_pickup_time"`
	EstimatedDeliveryTime sql.NullTime                `db:"estimated_delivery_time"`
	CurrentLocation       jsonb[domain.Coordinates]   `db:"current_location"`
	Images                pq.StringArray              `db:"images"`
	CreatedAt             time.Time                   `db:"created_at"`
	UpdatedAt             time.Time                   `db:"updated_at"`
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	u := t.Time.UTC()
	return &u
}

func toRow(s *domain.Shipment) shipmentRow {
	images := pq.StringArray(s.Images)
	if images == nil {
		images = pq.StringArray{}
	}
	return shipmentRow{
		ID:                    s.ID,
		TrackingNumber:        s.TrackingNumber,
		OwnerID:               s.OwnerID,
		BookedBy:              s.BookedBy,
		DriverID:              s.DriverID,
		ContainerID:           s.ContainerID,
		Status:                string(s.Status),
		PaymentStatus:         string(s.PaymentStatus),
		PaymentMethod:         string(s.PaymentMethod),
		Price:                 s.Price,
		PickupAddress:         someJSON(s.PickupAddress),
		DeliveryAddress:       someJSON(s.DeliveryAddress),
		ReceiverName:          s.ReceiverName,
		ReceiverPhoneNumber:   s.ReceiverPhoneNumber,
		ReceiverEmail:         s.ReceiverEmail,
		DeliveryType:          string(s.DeliveryType),
		PackageType:           s.PackageType,
		PackageDescription:    s.PackageDescription,
		ServiceType:           s.ServiceType,
		Weight:                s.Weight,
		Dimensions:            optionalJSON(s.Dimensions),
		PriceGuide:            optionalJSON(s.PriceGuide),
		Fragile:               s.Fragile,
		Notes:                 s.Notes,
		ScheduledPickupTime:   nullTime(s.ScheduledPickupTime),
		EstimatedDeliveryTime: nullTime(s.EstimatedDeliveryTime),
		CurrentLocation:       optionalJSON(s.CurrentLocation),
		Images:                images,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

func (r shipmentRow) toDomain() *domain.Shipment {
	images := []string(r.Images)
	if images == nil {
		images = []string{}
	}
	return &domain.Shipment{
		ID:                    r.ID,
		TrackingNumber:        r.TrackingNumber,
		OwnerID:               r.OwnerID,
		BookedBy:              r.BookedBy,
		DriverID:              r.DriverID,
		ContainerID:           r.ContainerID,
		Status:                domain.ShipmentStatus(r.Status),
		PaymentStatus:         domain.PaymentStatus(r.PaymentStatus),
		PaymentMethod:         domain.PaymentMethod(r.PaymentMethod),
		Price:                 r.Price,
		PickupAddress:         r.PickupAddress.V,
		DeliveryAddress:       r.DeliveryAddress.V,
		ReceiverName:          r.ReceiverName,
		ReceiverPhoneNumber:   r.ReceiverPhoneNumber,
		ReceiverEmail:         r.ReceiverEmail,
		DeliveryType:          domain.DeliveryType(r.DeliveryType),
		PackageType:           r.PackageType,
		PackageDescription:    r.PackageDescription,
		ServiceType:           r.ServiceType,
		Weight:                r.Weight,
		Dimensions:            r.Dimensions.ptr(),
		PriceGuide:            r.PriceGuide.ptr(),
		Fragile:               r.Fragile,
		Notes:                 r.Notes,
		ScheduledPickupTime:   timePtr(r.ScheduledPickupTime),
		EstimatedDeliveryTime: timePtr(r.EstimatedDeliveryTime),
		CurrentLocation:       r.CurrentLocation.ptr(),
		Images:                images,
		CreatedAt:             r.CreatedAt.UTC(),
		UpdatedAt:             r.UpdatedAt.UTC(),
	}
}

const shipmentColumns = `id, tracking_number, owner_id, booked_by, driver_id, container_id,
	status, payment_status, payment_method, price,
	pickup_address, delivery_address, receiver_name, receiver_phone_number, receiver_email, delivery_type,
	package_type, package_description, service_type, weight, dimensions, price_guide, fragile, notes,
	scheduled_pickup_time, estimated_delivery_time, current_location, images, created_at, updated_at`

// ShipmentRepository is the PostgreSQL implementation of ports.ShipmentRepository.
type ShipmentRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewShipmentRepository(db *sqlx.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db, now: time.Now}
}

func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	query := `INSERT INTO shipments (` + shipmentColumns + `) VALUES (
		:id, :tracking_number, :owner_id, :booked_by, :driver_id, :container_id,
		:status, :payment_status, :payment_method, :price,
		:pickup_address, :delivery_address, :receiver_name, :receiver_phone_number, :receiver_email, :delivery_type,
		:package_type, :package_description, :service_type, :weight, :dimensions, :price_guide, :fragile, :notes,
		:scheduled_pickup_time, :estimated_delivery_time, :current_location, :images, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, toRow(s)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrTrackingConflict
		}
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

// whereScope renders the scope restriction starting at placeholder $next.
func whereScope(scope ports.Scope, next int) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if scope.OwnerID != "" {
		clauses = append(clauses, "owner_id = $"+strconv.Itoa(next+len(args)))
		args = append(args, scope.OwnerID)
	}
	if scope.DriverID != "" {
		clauses = append(clauses, "driver_id = $"+strconv.Itoa(next+len(args)))
		args = append(args, scope.DriverID)
	}
	switch len(clauses) {
	case 0:
		return "", nil
	case 1:
		return " AND " + clauses[0], args
	default:
		return " AND (" + strings.Join(clauses, " OR ") + ")", args
	}
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string, scope ports.Scope) (*domain.Shipment, error) {
	cond, args := whereScope(scope, 2)
	return r.get(ctx, r.db, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`+cond, append([]any{id}, args...)...)
}

func (r *ShipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	return r.get(ctx, r.db, `SELECT `+shipmentColumns+` FROM shipments WHERE tracking_number = $1`, trackingNumber)
}

func (r *ShipmentRepository) get(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (*domain.Shipment, error) {
	var row shipmentRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ShipmentRepository) List(ctx context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	where, args := whereScope(f.Scope, 1)
	if f.Status != "" {
		args = append(args, f.Status)
		where += " AND status = $" + strconv.Itoa(len(args))
	}
	where = " WHERE TRUE" + where

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM shipments`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	n := len(args)
	query := `SELECT ` + shipmentColumns + ` FROM shipments` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	var rows []shipmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list shipments: %w", err)
	}
	items := make([]*domain.Shipment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, total, nil
}

// Update locks the row, applies patch in memory and writes the mutable
// columns back in the same transaction.
func (r *ShipmentRepository) Update(ctx context.Context, id string, scope ports.Scope, patch ports.ShipmentPatch) (*domain.Shipment, error) {
	return r.mutate(ctx, id, scope, patch.ApplyTo)
}

func (r *ShipmentRepository) AppendImages(ctx context.Context, id string, scope ports.Scope, urls []string) (*domain.Shipment, error) {
	return r.mutate(ctx, id, scope, func(s *domain.Shipment) {
		s.Images = append(s.Images, urls...)
	})
}

func (r *ShipmentRepository) mutate(ctx context.Context, id string, scope ports.Scope, apply func(*domain.Shipment)) (_ *domain.Shipment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cond, args := whereScope(scope, 2)
	current, err := r.get(ctx, tx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`+cond+` FOR UPDATE`, append([]any{id}, args...)...)
	if err != nil {
		return nil, err
	}

	apply(current)
	current.UpdatedAt = r.now().UTC()

	const update = `UPDATE shipments SET
		driver_id = :driver_id, container_id = :container_id,
		status = :status, payment_status = :payment_status, payment_method = :payment_method, price = :price,
		pickup_address = :pickup_address, delivery_address = :delivery_address,
		receiver_name = :receiver_name, receiver_phone_number = :receiver_phone_number,
		receiver_email = :receiver_email, delivery_type = :delivery_type,
		weight = :weight, dimensions = :dimensions, price_guide = :price_guide,
		scheduled_pickup_time = :scheduled_pickup_time, estimated_delivery_time = :estimated_delivery_time,
		current_location = :current_location, images = :images, updated_at = :updated_at
		WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, update, toRow(current)); err != nil {
		return nil, fmt.Errorf("update shipment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return current, nil
}

func (r *ShipmentRepository) Stats(ctx context.Context) (*ports.ShipmentStats, error) {
	const query = `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'pending') AS pending,
		COUNT(*) FILTER (WHERE status = 'delivered') AS delivered,
		COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled,
		COALESCE(SUM(price) FILTER (WHERE payment_status = 'paid'), 0) AS revenue
		FROM shipments`

	var row struct {
		Total     int64           `db:"total"`
		Pending   int64           `db:"pending"`
		Delivered int64           `db:"delivered"`
		Cancelled int64           `db:"cancelled"`
		Revenue   decimal.Decimal `db:"revenue"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("shipment stats: %w", err)
	}
	return &ports.ShipmentStats{
		Total:     row.Total,
		Pending:   row.Pending,
		Delivered: row.Delivered,
		Cancelled: row.Cancelled,
		Revenue:   row.Revenue,
	}, nil
}
