package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aaandrangom/biblioteca-api/models"
	"gorm.io/gorm"
)

// AcceptanceWindow is how long a client has to pick up an accepted order
const AcceptanceWindow = 24 * time.Hour

// claimCandidates bounds how many available copies one creation tries to claim
const claimCandidates = 5

// CreateOrderInput holds the fields needed to open a loan order
type CreateOrderInput struct {
	UserID     string
	BookID     uint
	ReturnDate *time.Time
	Status     models.OrderStatus
}

// UpdateStatusInput holds a status transition request. Book and copy default to the order's line.
type UpdateStatusInput struct {
	Status     models.OrderStatus
	ReturnDate *time.Time
	BookID     *uint
	CopyID     *uint
	Email      string
}

// OrderService coordinates orders, order lines, copies and book stock
type OrderService struct {
	db       *gorm.DB
	notifier Notifier
	events   EventPublisher
	strict   bool
	now      func() time.Time
}

// NewOrderService creates the order lifecycle service.
// When strict is true transitions outside the status table fail with a conflict.
func NewOrderService(db *gorm.DB, notifier Notifier, events EventPublisher, strict bool) *OrderService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &OrderService{
		db:       db,
		notifier: notifier,
		events:   events,
		strict:   strict,
		now:      time.Now,
	}
}

// Create reserves an available copy of the book and opens an order with one line for it
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.Status == "" {
		in.Status = models.OrderStatusSent
	}
	if !in.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if s.strict && !in.Status.IsOpening() {
		return nil, &ServiceError{
			Kind:    KindConflict,
			Code:    ErrTransitionForbidden.Code,
			Message: fmt.Sprintf("an order cannot start in status %s", in.Status),
		}
	}

	db := s.db.WithContext(ctx)

	if err := db.Select("usr_cedula").First(&models.User{}, "usr_cedula = ?", in.UserID).Error; err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	if err := db.Select("li_secuencial").First(&models.Book{}, in.BookID).Error; err != nil {
		return nil, notFoundOr(err, ErrBookNotFound)
	}

	now := s.now()
	var order models.Order

	err := db.Transaction(func(tx *gorm.DB) error {
		copyID, err := claimCopy(tx, in.BookID)
		if err != nil {
			return err
		}

		order = models.Order{
			UserID:      in.UserID,
			RequestDate: startOfDay(now),
			ReturnDate:  in.ReturnDate,
			Status:      in.Status,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		line := models.OrderLine{
			OrderID: order.ID,
			BookID:  in.BookID,
			CopyID:  copyID,
			Status:  models.LineStatusAwaiting,
		}
		if err := tx.Create(&line).Error; err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}

		order.Lines = []models.OrderLine{line}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, OrderEvent{
		Type:       EventOrderCreated,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		BookID:     in.BookID,
		CopyID:     order.Lines[0].CopyID,
		OccurredAt: now,
	})

	return &order, nil
}

// claimCopy moves one available copy of the book to reserved and returns its id.
// The conditional update makes concurrent claims on the same copy fail for all but one caller.
func claimCopy(tx *gorm.DB, bookID uint) (uint, error) {
	var candidates []uint
	err := tx.Model(&models.InventoryCopy{}).
		Where("invl_libro = ? AND invl_estado = ?", bookID, models.CopyStatusAvailable).
		Order("invl_secuencial").
		Limit(claimCandidates).
		Pluck("invl_secuencial", &candidates).Error
	if err != nil {
		return 0, fmt.Errorf("failed to look up available copies: %w", err)
	}

	for _, id := range candidates {
		res := tx.Model(&models.InventoryCopy{}).
			Where("invl_secuencial = ? AND invl_estado = ?", id, models.CopyStatusAvailable).
			Update("invl_estado", models.CopyStatusReserved)
		if res.Error != nil {
			return 0, fmt.Errorf("failed to reserve copy %d: %w", id, res.Error)
		}
		if res.RowsAffected == 1 {
			return id, nil
		}
	}

	return 0, ErrNoCopiesAvailable
}

// UpdateStatus moves an order to a new status and applies the stock, copy and line side effects
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, in UpdateStatusInput) (*models.Order, error) {
	if !in.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	now := s.now()
	var (
		order    models.Order
		from     models.OrderStatus
		changed  bool
		email    string
		deadline time.Time
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Lines").First(&order, orderID).Error; err != nil {
			return notFoundOr(err, ErrOrderNotFound)
		}

		from = order.Status
		changed = from != in.Status

		if changed {
			if s.strict && !from.CanTransitionTo(in.Status) {
				return &ServiceError{
					Kind:    KindConflict,
					Code:    ErrTransitionForbidden.Code,
					Message: fmt.Sprintf("cannot move order from %s to %s", from, in.Status),
				}
			}

			var err error
			switch in.Status {
			case models.OrderStatusReceived:
				err = s.markReceived(tx, &order, in)
			case models.OrderStatusFinalized:
				err = s.markFinalized(tx, &order, in, now)
			case models.OrderStatusAccepted:
				deadline = now.Add(AcceptanceWindow)
				email, err = s.markAccepted(tx, &order, in, deadline)
			}
			if err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"ped_estado": in.Status}
		if in.ReturnDate != nil {
			updates["ped_fecha_devolucion"] = *in.ReturnDate
		}
		if err := tx.Model(&models.Order{}).Where("ped_secuencial = ?", order.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		var reloaded models.Order
		if err := tx.Preload("Lines").First(&reloaded, orderID).Error; err != nil {
			return fmt.Errorf("failed to reload order: %w", err)
		}
		order = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !changed {
		return &order, nil
	}

	if in.Status == models.OrderStatusAccepted {
		if err := s.notifier.SendOrderAccepted(ctx, email, order.ID, deadline); err != nil {
			log.Printf("Failed to send acceptance email for order %d: %v", order.ID, err)
		}
	}

	event := OrderEvent{
		Type:       EventOrderStatusChanged,
		OrderID:    order.ID,
		UserID:     order.UserID,
		FromStatus: from,
		Status:     order.Status,
		OccurredAt: now,
	}
	if line := pickLine(&order, in); line != nil {
		event.BookID = line.BookID
		event.CopyID = line.CopyID
	}
	s.publish(ctx, event)

	return &order, nil
}

// markReceived hands the copy to the client: stock goes down, the copy is checked out and the line delivered
func (s *OrderService) markReceived(tx *gorm.DB, order *models.Order, in UpdateStatusInput) error {
	line := pickLine(order, in)
	bookID, copyID, err := resolveTargets(line, in)
	if err != nil {
		return err
	}
	if copyID == 0 {
		return validationError("MISSING_COPY", "copy is required for this transition")
	}

	res := tx.Model(&models.Book{}).
		Where("li_secuencial = ? AND li_stock > 0", bookID).
		UpdateColumn("li_stock", gorm.Expr("li_stock - 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := tx.Select("li_secuencial").First(&models.Book{}, bookID).Error; err != nil {
			return notFoundOr(err, ErrBookNotFound)
		}
		return ErrOutOfStock
	}

	res = tx.Model(&models.InventoryCopy{}).
		Where("invl_secuencial = ?", copyID).
		Update("invl_estado", models.CopyStatusCheckedOut)
	if res.Error != nil {
		return fmt.Errorf("failed to check out copy: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCopyNotFound
	}

	if line == nil {
		return nil
	}
	return updateLine(tx, line.ID, map[string]interface{}{"lip_estado": models.LineStatusDelivered})
}

// markFinalized takes the copy back: stock goes up, the book's copies return to the shelf and the line is closed
func (s *OrderService) markFinalized(tx *gorm.DB, order *models.Order, in UpdateStatusInput, now time.Time) error {
	line := pickLine(order, in)
	bookID, _, err := resolveTargets(line, in)
	if err != nil {
		return err
	}

	res := tx.Model(&models.Book{}).
		Where("li_secuencial = ?", bookID).
		UpdateColumn("li_stock", gorm.Expr("li_stock + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBookNotFound
	}

	if err := tx.Model(&models.InventoryCopy{}).
		Where("invl_libro = ?", bookID).
		Update("invl_estado", models.CopyStatusAvailable).Error; err != nil {
		return fmt.Errorf("failed to release copies: %w", err)
	}

	if line == nil {
		return nil
	}
	return updateLine(tx, line.ID, map[string]interface{}{
		"lip_estado":           models.LineStatusReturned,
		"lip_fecha_devolucion": now,
	})
}

// markAccepted stores the pickup deadline on the line and returns the address to notify
func (s *OrderService) markAccepted(tx *gorm.DB, order *models.Order, in UpdateStatusInput, deadline time.Time) (string, error) {
	if line := pickLine(order, in); line != nil {
		if err := updateLine(tx, line.ID, map[string]interface{}{"lip_fecha_entrega_cliente": deadline}); err != nil {
			return "", err
		}
	}

	if in.Email != "" {
		return in.Email, nil
	}

	var owner models.User
	if err := tx.Select("usr_cedula", "usr_email").First(&owner, "usr_cedula = ?", order.UserID).Error; err != nil {
		return "", notFoundOr(err, ErrUserNotFound)
	}
	return owner.Email, nil
}

// Cancel marks the order as cancelled
func (s *OrderService) Cancel(ctx context.Context, orderID uint) (*models.Order, error) {
	now := s.now()
	var (
		order models.Order
		from  models.OrderStatus
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFoundOr(err, ErrOrderNotFound)
		}
		from = order.Status
		if from == models.OrderStatusCancelled {
			return nil
		}
		if s.strict && !from.CanTransitionTo(models.OrderStatusCancelled) {
			return &ServiceError{
				Kind:    KindConflict,
				Code:    ErrTransitionForbidden.Code,
				Message: fmt.Sprintf("cannot cancel an order in status %s", from),
			}
		}

		if err := tx.Model(&order).Update("ped_estado", models.OrderStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
		order.Status = models.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	if from != models.OrderStatusCancelled {
		s.publish(ctx, OrderEvent{
			Type:       EventOrderCancelled,
			OrderID:    order.ID,
			UserID:     order.UserID,
			FromStatus: from,
			Status:     order.Status,
			OccurredAt: now,
		})
	}

	return &order, nil
}

// List returns every order, most recent request first
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Lines").
		Order("ped_fecha_solicitud DESC, ped_secuencial DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Get returns one order with its lines
func (s *OrderService) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Lines").First(&order, orderID).Error; err != nil {
		return nil, notFoundOr(err, ErrOrderNotFound)
	}
	return &order, nil
}

// ListByUser returns the orders of a user, optionally only those in status
func (s *OrderService) ListByUser(ctx context.Context, cedula string, status models.OrderStatus) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Preload("Lines").Where("ped_usuario = ?", cedula)
	if status != "" {
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		query = query.Where("ped_estado = ?", status)
	}

	var orders []models.Order
	if err := query.Order("ped_fecha_solicitud DESC, ped_secuencial DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders of user %s: %w", cedula, err)
	}
	return orders, nil
}

// ListLines returns every order line
func (s *OrderService) ListLines(ctx context.Context) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	if err := s.db.WithContext(ctx).Order("lip_secuencial DESC").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	return lines, nil
}

// GetLine returns one order line
func (s *OrderService) GetLine(ctx context.Context, lineID uint) (*models.OrderLine, error) {
	var line models.OrderLine
	if err := s.db.WithContext(ctx).First(&line, lineID).Error; err != nil {
		return nil, notFoundOr(err, ErrOrderLineNotFound)
	}
	return &line, nil
}

// LinesOfOrder returns the lines of an existing order
func (s *OrderService) LinesOfOrder(ctx context.Context, orderID uint) ([]models.OrderLine, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order.Lines, nil
}

func (s *OrderService) publish(ctx context.Context, event OrderEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("Failed to publish %s for order %d: %v", event.Type, event.OrderID, err)
	}
}

// pickLine returns the line the transition applies to: the one matching the requested copy or book, else the first
func pickLine(order *models.Order, in UpdateStatusInput) *models.OrderLine {
	if len(order.Lines) == 0 {
		return nil
	}
	for i := range order.Lines {
		line := &order.Lines[i]
		if in.CopyID != nil && line.CopyID == *in.CopyID {
			return line
		}
		if in.CopyID == nil && in.BookID != nil && line.BookID == *in.BookID {
			return line
		}
	}
	return &order.Lines[0]
}

func resolveTargets(line *models.OrderLine, in UpdateStatusInput) (bookID, copyID uint, err error) {
	if line != nil {
		bookID, copyID = line.BookID, line.CopyID
	}
	if in.BookID != nil {
		bookID = *in.BookID
	}
	if in.CopyID != nil {
		copyID = *in.CopyID
	}
	if bookID == 0 {
		return 0, 0, validationError("MISSING_BOOK", "book is required for this transition")
	}
	return bookID, copyID, nil
}

func updateLine(tx *gorm.DB, lineID uint, updates map[string]interface{}) error {
	if err := tx.Model(&models.OrderLine{}).Where("lip_secuencial = ?", lineID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update order line %d: %w", lineID, err)
	}
	return nil
}

// notFoundOr maps gorm's not-found to notFound and wraps anything else
func notFoundOr(err error, notFound *ServiceError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("database error: %w", err)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
