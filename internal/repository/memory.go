package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/drdata1010/plan-b-backend-sub001/internal/domain"
)

// NewMemoryRepositories returns a Repositories bundle backed entirely by
// process memory. Used in dev mode and by tests.
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Users:         NewMemoryUserRepository(),
		Tickets:       NewMemoryTicketRepository(),
		Chats:         NewMemoryChatRepository(),
		Experts:       NewMemoryExpertRepository(),
		Consultations: NewMemoryConsultationRepository(),
		Attachments:   NewMemoryAttachmentRepository(),
	}
}

// MemoryUserRepository is an in-memory UserRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.UserProfile
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*domain.UserProfile)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	existing.DisplayName = user.DisplayName
	existing.PasswordHash = user.PasswordHash
	existing.EmailVerified = user.EmailVerified
	existing.Roles = append(existing.Roles[:0:0], user.Roles...)
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) List(_ context.Context, page Page) ([]*domain.UserProfile, error) {
	page = page.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.UserProfile, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pageSlice(all, page), nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// MemoryTicketRepository is an in-memory TicketRepository.
type MemoryTicketRepository struct {
	mu       sync.RWMutex
	tickets  map[string]*domain.Ticket
	comments map[string][]*domain.TicketComment
	seq      int64
}

// NewMemoryTicketRepository creates an empty in-memory ticket repository.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets:  make(map[string]*domain.Ticket),
		comments: make(map[string][]*domain.TicketComment),
	}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.Number == ticket.Number {
			return ErrDuplicate
		}
	}
	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryTicketRepository) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tickets {
		if t.Number == number {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return ErrNotFound
	}
	cp := *ticket
	cp.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *MemoryTicketRepository) List(_ context.Context, filter domain.TicketFilter, page Page) ([]*domain.Ticket, error) {
	page = page.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*domain.Ticket
	for _, t := range r.tickets {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.UserID != "" && t.UserID != filter.UserID {
			continue
		}
		if filter.AssignedExpertID != "" {
			if t.AssignedExpertID == nil || *t.AssignedExpertID != filter.AssignedExpertID {
				continue
			}
		}
		if filter.Unassigned && t.AssignedExpertID != nil {
			continue
		}
		cp := *t
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pageSlice(all, page), nil
}

func (r *MemoryTicketRepository) NextNumber(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *MemoryTicketRepository) AddComment(_ context.Context, comment *domain.TicketComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	cp := *comment
	r.comments[comment.TicketID] = append(r.comments[comment.TicketID], &cp)
	return nil
}

func (r *MemoryTicketRepository) ListComments(_ context.Context, ticketID string) ([]*domain.TicketComment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.comments[ticketID]
	out := make([]*domain.TicketComment, 0, len(src))
	for _, c := range src {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// MemoryChatRepository is an in-memory ChatRepository.
type MemoryChatRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
	messages map[string][]*domain.ChatMessage
}

// NewMemoryChatRepository creates an empty in-memory chat repository.
func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		sessions: make(map[string]*domain.ChatSession),
		messages: make(map[string][]*domain.ChatMessage),
	}
}

func (r *MemoryChatRepository) CreateSession(_ context.Context, session *domain.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *MemoryChatRepository) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryChatRepository) UpdateSession(_ context.Context, session *domain.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.sessions[session.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = session.Title
	existing.Active = session.Active
	existing.EndedAt = session.EndedAt
	return nil
}

func (r *MemoryChatRepository) ListSessionsByUser(_ context.Context, userID string, page Page) ([]*domain.ChatSession, error) {
	page = page.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*domain.ChatSession
	for _, s := range r.sessions {
		if !s.HasParticipant(userID) {
			continue
		}
		cp := *s
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })
	return pageSlice(all, page), nil
}

func (r *MemoryChatRepository) CreateMessage(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	cp := *msg
	r.messages[msg.ChatSessionID] = append(r.messages[msg.ChatSessionID], &cp)
	return nil
}

func (r *MemoryChatRepository) GetMessage(_ context.Context, id string) (*domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, msgs := range r.messages {
		for _, m := range msgs {
			if m.ID == id {
				cp := *m
				return &cp, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryChatRepository) ListMessages(_ context.Context, sessionID string, page Page) ([]*domain.ChatMessage, error) {
	page = page.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.messages[sessionID]
	all := make([]*domain.ChatMessage, 0, len(src))
	for _, m := range src {
		cp := *m
		all = append(all, &cp)
	}
	return pageSlice(all, page), nil
}

func (r *MemoryChatRepository) MarkMessageRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msgs := range r.messages {
		for _, m := range msgs {
			if m.ID == id {
				m.Read = true
				return nil
			}
		}
	}
	return ErrNotFound
}

func (r *MemoryChatRepository) MarkMessagesRead(_ context.Context, sessionID, readerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var flipped int64
	for _, m := range r.messages[sessionID] {
		if m.SenderID != readerID && !m.Read {
			m.Read = true
			flipped++
		}
	}
	return flipped, nil
}

func (r *MemoryChatRepository) CountUnread(_ context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for id, s := range r.sessions {
		if !s.HasParticipant(userID) {
			continue
		}
		for _, m := range r.messages[id] {
			if m.SenderID != userID && !m.Read {
				count++
			}
		}
	}
	return count, nil
}

// MemoryExpertRepository is an in-memory ExpertRepository.
type MemoryExpertRepository struct {
	mu      sync.RWMutex
	experts map[string]*domain.Expert
	slots   map[string]*domain.AvailabilitySlot
}

// NewMemoryExpertRepository creates an empty in-memory expert repository.
func NewMemoryExpertRepository() *MemoryExpertRepository {
	return &MemoryExpertRepository{
		experts: make(map[string]*domain.Expert),
		slots:   make(map[string]*domain.AvailabilitySlot),
	}
}

func (r *MemoryExpertRepository) Create(_ context.Context, expert *domain.Expert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.experts {
		if e.UserID == expert.UserID {
			return ErrDuplicate
		}
	}
	if expert.ID == "" {
		expert.ID = uuid.New().String()
	}
	if expert.CreatedAt.IsZero() {
		expert.CreatedAt = time.Now()
	}
	expert.UpdatedAt = expert.CreatedAt
	cp := *expert
	r.experts[expert.ID] = &cp
	return nil
}

func (r *MemoryExpertRepository) GetByID(_ context.Context, id string) (*domain.Expert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.experts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *MemoryExpertRepository) GetByUserID(_ context.Context, userID string) (*domain.Expert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.experts {
		if e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryExpertRepository) Update(_ context.Context, expert *domain.Expert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.experts[expert.ID]
	if !ok {
		return ErrNotFound
	}
	existing.DisplayName = expert.DisplayName
	existing.Specialization = expert.Specialization
	existing.Bio = expert.Bio
	existing.HourlyRate = expert.HourlyRate
	existing.Available = expert.Available
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryExpertRepository) List(_ context.Context, onlyAvailable bool, page Page) ([]*domain.Expert, error) {
	page = page.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*domain.Expert
	for _, e := range r.experts {
		if onlyAvailable && !e.Available {
			continue
		}
		cp := *e
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pageSlice(all, page), nil
}

func (r *MemoryExpertRepository) AddSlot(_ context.Context, slot *domain.AvailabilitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	cp := *slot
	r.slots[slot.ID] = &cp
	return nil
}

func (r *MemoryExpertRepository) ListSlots(_ context.Context, expertID string) ([]*domain.AvailabilitySlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.AvailabilitySlot
	for _, s := range r.slots {
		if s.ExpertID == expertID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].StartMinute < out[j].StartMinute
	})
	return out, nil
}

func (r *MemoryExpertRepository) RemoveSlot(_ context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[slotID]; !ok {
		return ErrNotFound
	}
	delete(r.slots, slotID)
	return nil
}

// MemoryConsultationRepository is an in-memory ConsultationRepository.
type MemoryConsultationRepository struct {
	mu            sync.RWMutex
	consultations map[string]*domain.Consultation
}

// NewMemoryConsultationRepository creates an empty in-memory consultation repository.
func NewMemoryConsultationRepository() *MemoryConsultationRepository {
	return &MemoryConsultationRepository{consultations: make(map[string]*domain.Consultation)}
}

func (r *MemoryConsultationRepository) Create(_ context.Context, c *domain.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.consultations[c.ID] = &cp
	return nil
}

func (r *MemoryConsultationRepository) GetByID(_ context.Context, id string) (*domain.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryConsultationRepository) Update(_ context.Context, c *domain.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.consultations[c.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = c.Status
	existing.Notes = c.Notes
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryConsultationRepository) ListByUser(_ context.Context, userID string, page Page) ([]*domain.Consultation, error) {
	return r.listWhere(func(c *domain.Consultation) bool { return c.UserID == userID }, page)
}

func (r *MemoryConsultationRepository) ListByExpert(_ context.Context, expertID string, page Page) ([]*domain.Consultation, error) {
	return r.listWhere(func(c *domain.Consultation) bool { return c.ExpertID == expertID }, page)
}

func (r *MemoryConsultationRepository) listWhere(match func(*domain.Consultation) bool, page Page) ([]*domain.Consultation, error) {
	page = page.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*domain.Consultation
	for _, c := range r.consultations {
		if match(c) {
			cp := *c
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ScheduledAt.Before(all[j].ScheduledAt) })
	return pageSlice(all, page), nil
}

func (r *MemoryConsultationRepository) ListOverlapping(_ context.Context, expertID string, start time.Time, durationMinutes int) ([]*domain.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Consultation
	for _, c := range r.consultations {
		if c.ExpertID != expertID || c.Status != domain.ConsultationScheduled {
			continue
		}
		if c.Overlaps(start, durationMinutes) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MemoryAttachmentRepository is an in-memory AttachmentRepository.
type MemoryAttachmentRepository struct {
	mu          sync.RWMutex
	attachments map[string]*domain.Attachment
}

// NewMemoryAttachmentRepository creates an empty in-memory attachment repository.
func NewMemoryAttachmentRepository() *MemoryAttachmentRepository {
	return &MemoryAttachmentRepository{attachments: make(map[string]*domain.Attachment)}
}

func (r *MemoryAttachmentRepository) Create(_ context.Context, a *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	cp := *a
	r.attachments[a.ID] = &cp
	return nil
}

func (r *MemoryAttachmentRepository) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attachments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryAttachmentRepository) ListByEntity(_ context.Context, entityType, entityID string) ([]*domain.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Attachment
	for _, a := range r.attachments {
		if a.EntityType == entityType && a.EntityID == entityID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryAttachmentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attachments[id]; !ok {
		return ErrNotFound
	}
	delete(r.attachments, id)
	return nil
}

func pageSlice[T any](all []T, page Page) []T {
	if page.Offset >= len(all) {
		return nil
	}
	end := page.Offset + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Offset:end]
}
