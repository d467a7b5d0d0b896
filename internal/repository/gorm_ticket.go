package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
)

// GormTicketRepository implements TicketRepository using GORM.
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GORM-based ticket repository.
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// Create creates a new ticket.
func (r *GormTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// GetByID retrieves a ticket by id.
func (r *GormTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// GetByNumber retrieves a ticket by its human-facing number.
func (r *GormTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// Update persists the full ticket row.
func (r *GormTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	result := r.db.WithContext(ctx).Model(&domain.Ticket{}).
		Where("id = ?", ticket.ID).
		Updates(map[string]interface{}{
			"title":              ticket.Title,
			"description":        ticket.Description,
			"status":             ticket.Status,
			"priority":           ticket.Priority,
			"category":           ticket.Category,
			"assigned_expert_id": ticket.AssignedExpertID,
			"due_date":           ticket.DueDate,
			"resolved_at":        ticket.ResolvedAt,
			"closed_at":          ticket.ClosedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns tickets matching the filter, newest first.
func (r *GormTicketRepository) List(ctx context.Context, filter domain.TicketFilter, page Page) ([]*domain.Ticket, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&domain.Ticket{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.AssignedExpertID != "" {
		q = q.Where("assigned_expert_id = ?", filter.AssignedExpertID)
	}
	if filter.Unassigned {
		q = q.Where("assigned_expert_id IS NULL")
	}

	var tickets []*domain.Ticket
	err := q.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&tickets).Error
	return tickets, err
}

// NextNumber atomically increments and returns the ticket number sequence.
func (r *GormTicketRepository) NextNumber(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq domain.TicketSequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&seq, "id = ?", 1).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = domain.TicketSequence{ID: 1, Value: 0}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		seq.Value++
		next = seq.Value
		return tx.Model(&domain.TicketSequence{}).Where("id = ?", 1).Update("value", seq.Value).Error
	})
	return next, err
}

// AddComment appends a comment to a ticket.
func (r *GormTicketRepository) AddComment(ctx context.Context, comment *domain.TicketComment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListComments returns a ticket's comments in posting order.
func (r *GormTicketRepository) ListComments(ctx context.Context, ticketID string) ([]*domain.TicketComment, error) {
	var comments []*domain.TicketComment
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
