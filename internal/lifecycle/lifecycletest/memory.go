// Package lifecycletest provides in-memory stores and fake collaborators for
// exercising the lifecycle controller without a database.
package lifecycletest

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/models"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Memory holds every record family in maps guarded by one mutex.
type Memory struct {
	mu sync.Mutex

	listings map[string]models.Listing
	pending  map[string]models.PendingSubmission
	expired  map[string]models.ExpiredListing
	support  map[string]models.SupportMessage
	issued   map[string]bool
	seq      int

	// Fail makes the named operation return the error, for example
	// "listings.create" or "pending.delete".
	Fail map[string]error
	// FailReplaceInsert makes ReplaceAll delete everything and then fail.
	FailReplaceInsert bool
}

// Compile-time check that Memory implements Transactor.
var _ lifecycle.Transactor = (*Memory)(nil)

// NewMemory returns an empty store set.
func NewMemory() *Memory {
	return &Memory{
		listings: make(map[string]models.Listing),
		pending:  make(map[string]models.PendingSubmission),
		expired:  make(map[string]models.ExpiredListing),
		support:  make(map[string]models.SupportMessage),
		issued:   make(map[string]bool),
		Fail:     make(map[string]error),
	}
}

// Stores returns lifecycle stores backed by m.
func (m *Memory) Stores() lifecycle.Stores {
	return lifecycle.Stores{
		Listings: listingStore{m},
		Pending:  pendingStore{m},
		Expired:  expiredStore{m},
		Support:  supportStore{m},
	}
}

// InTx runs fn and restores the previous contents when it fails.
func (m *Memory) InTx(_ context.Context, fn func(s lifecycle.Stores) error) error {
	m.mu.Lock()
	listings := maps.Clone(m.listings)
	pending := maps.Clone(m.pending)
	expired := maps.Clone(m.expired)
	support := maps.Clone(m.support)
	issued := maps.Clone(m.issued)
	m.mu.Unlock()

	if err := fn(m.Stores()); err != nil {
		m.mu.Lock()
		m.listings, m.pending, m.expired, m.support = listings, pending, expired, support
		m.issued = issued
		m.mu.Unlock()
		return err
	}
	return nil
}

// Listings returns a snapshot of the published listings ordered by code.
func (m *Memory) Listings() []models.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Collect(maps.Values(m.listings))
	slices.SortFunc(out, func(a, b models.Listing) int { return cmp.Compare(a.Code, b.Code) })
	return out
}

// Pending returns a snapshot of the pending submissions.
func (m *Memory) Pending() []models.PendingSubmission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Collect(maps.Values(m.pending))
}

// Expired returns a snapshot of the archived listings.
func (m *Memory) Expired() []models.ExpiredListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Collect(maps.Values(m.expired))
}

// Support returns a snapshot of the support inbox.
func (m *Memory) Support() []models.SupportMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Collect(maps.Values(m.support))
}

// AddListing stores l directly, assigning an id when missing.
func (m *Memory) AddListing(l models.Listing) models.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp(&l.ID, &l.CreatedAt)
	m.listings[l.ID] = l
	m.reserve(l.Code)
	return l
}

// AddExpired stores e directly, assigning an id when missing.
func (m *Memory) AddExpired(e models.ExpiredListing) models.ExpiredListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp(&e.ID, &e.ExpiredAt)
	m.expired[e.ID] = e
	m.reserve(e.Code)
	return e
}

// stamp assigns an id and a creation time that increases with every record.
// Callers hold mu.
func (m *Memory) stamp(id *string, created *time.Time) {
	m.seq++
	if *id == "" {
		*id = fmt.Sprintf("id-%d", m.seq)
	}
	if created.IsZero() {
		*created = epoch.Add(time.Duration(m.seq) * time.Minute)
	}
}

func (m *Memory) failure(op string) error {
	if err, ok := m.Fail[op]; ok {
		return err
	}
	return nil
}

func (m *Memory) reserve(code string) {
	if code != "" {
		m.issued[code] = true
	}
}

func (m *Memory) codeTaken(code, exceptID string) bool {
	if code == "" {
		return false
	}
	for id, l := range m.listings {
		if id != exceptID && l.Code == code {
			return true
		}
	}
	return false
}

type listingStore struct{ m *Memory }

func (s listingStore) List(_ context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("listings.list"); err != nil {
		return nil, err
	}

	out := make([]models.Listing, 0, len(s.m.listings))
	for _, l := range s.m.listings {
		if filter.VisibleOnly && !l.Visible {
			continue
		}
		if filter.FeaturedOnly && !l.Featured {
			continue
		}
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		out = append(out, l)
	}

	if filter.OrderBy == models.OrderCode {
		slices.SortFunc(out, func(a, b models.Listing) int { return cmp.Compare(a.Code, b.Code) })
	} else {
		slices.SortFunc(out, func(a, b models.Listing) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
	return out, nil
}

func (s listingStore) GetByID(_ context.Context, id string) (*models.Listing, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	l, ok := s.m.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}
	return &l, nil
}

func (s listingStore) GetByCode(_ context.Context, code string) (*models.Listing, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, l := range s.m.listings {
		if l.Code == code {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("listing %s: %w", code, models.ErrNotFound)
}

func (s listingStore) Create(_ context.Context, l *models.Listing) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("listings.create"); err != nil {
		return err
	}
	if s.m.codeTaken(l.Code, "") {
		return fmt.Errorf("code %s: %w", l.Code, models.ErrConflict)
	}
	l.ID = ""
	l.CreatedAt = time.Time{}
	s.m.stamp(&l.ID, &l.CreatedAt)
	l.UpdatedAt = l.CreatedAt
	s.m.listings[l.ID] = *l
	s.m.reserve(l.Code)
	return nil
}

func (s listingStore) Update(_ context.Context, l *models.Listing) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("listings.update"); err != nil {
		return err
	}
	old, ok := s.m.listings[l.ID]
	if !ok {
		return fmt.Errorf("listing %s: %w", l.ID, models.ErrNotFound)
	}
	if s.m.codeTaken(l.Code, l.ID) {
		return fmt.Errorf("code %s: %w", l.Code, models.ErrConflict)
	}
	l.CreatedAt = old.CreatedAt
	s.m.listings[l.ID] = *l
	s.m.reserve(l.Code)
	return nil
}

func (s listingStore) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("listings.delete"); err != nil {
		return err
	}
	if _, ok := s.m.listings[id]; !ok {
		return fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}
	delete(s.m.listings, id)
	return nil
}

func (s listingStore) modify(id string, fn func(l *models.Listing)) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	l, ok := s.m.listings[id]
	if !ok {
		return fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}
	fn(&l)
	s.m.listings[id] = l
	return nil
}

func (s listingStore) SetVisible(_ context.Context, id string, visible bool) error {
	return s.modify(id, func(l *models.Listing) { l.Visible = visible })
}

func (s listingStore) SetFeatured(_ context.Context, id string, featured bool) error {
	return s.modify(id, func(l *models.Listing) { l.Featured = featured })
}

func (s listingStore) SetTelegramMessageID(_ context.Context, id string, messageID int) error {
	return s.modify(id, func(l *models.Listing) { l.TelegramMessageID = messageID })
}

func (s listingStore) ReplaceAll(_ context.Context, listings []models.Listing) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("listings.replace"); err != nil {
		return err
	}

	s.m.listings = make(map[string]models.Listing, len(listings))
	if s.m.FailReplaceInsert {
		return fmt.Errorf("insert listings: %w", models.ErrCatalogEmptied)
	}
	for _, l := range listings {
		if s.m.codeTaken(l.Code, "") {
			return fmt.Errorf("code %s: %w", l.Code, models.ErrConflict)
		}
		l.ID = ""
		l.CreatedAt = time.Time{}
		s.m.stamp(&l.ID, &l.CreatedAt)
		s.m.listings[l.ID] = l
		s.m.reserve(l.Code)
	}
	return nil
}

func (s listingStore) Codes(_ context.Context, prefix string) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var codes []string
	for _, l := range s.m.listings {
		if strings.HasPrefix(l.Code, prefix) {
			codes = append(codes, l.Code)
		}
	}
	slices.Sort(codes)
	return codes, nil
}

func (s listingStore) IssuedCodes(_ context.Context, prefix string) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var codes []string
	for code := range s.m.issued {
		if strings.HasPrefix(code, prefix) {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes, nil
}

func (s listingStore) CountByIcon(_ context.Context) (map[string]int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	counts := make(map[string]int)
	for _, l := range s.m.listings {
		counts[l.Icon]++
	}
	return counts, nil
}

type pendingStore struct{ m *Memory }

func (s pendingStore) Create(_ context.Context, p *models.PendingSubmission) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("pending.create"); err != nil {
		return err
	}
	p.ID = ""
	p.SubmittedAt = time.Time{}
	s.m.stamp(&p.ID, &p.SubmittedAt)
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = models.ApprovalPending
	}
	s.m.pending[p.ID] = *p
	return nil
}

func (s pendingStore) GetByID(_ context.Context, id string) (*models.PendingSubmission, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.pending[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
	}
	return &p, nil
}

func (s pendingStore) ListPending(_ context.Context) ([]models.PendingSubmission, error) {
	return s.list(func(models.PendingSubmission) bool { return true }), nil
}

func (s pendingStore) ListByUser(_ context.Context, userID string) ([]models.PendingSubmission, error) {
	return s.list(func(p models.PendingSubmission) bool { return p.UserID == userID }), nil
}

func (s pendingStore) list(keep func(models.PendingSubmission) bool) []models.PendingSubmission {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.PendingSubmission
	for _, p := range s.m.pending {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.PendingSubmission) int { return a.SubmittedAt.Compare(b.SubmittedAt) })
	return out
}

func (s pendingStore) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("pending.delete"); err != nil {
		return err
	}
	if _, ok := s.m.pending[id]; !ok {
		return fmt.Errorf("submission %s: %w", id, models.ErrNotFound)
	}
	delete(s.m.pending, id)
	return nil
}

type expiredStore struct{ m *Memory }

func (s expiredStore) Create(_ context.Context, e *models.ExpiredListing) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("expired.create"); err != nil {
		return err
	}
	e.ID = ""
	e.ExpiredAt = time.Time{}
	s.m.stamp(&e.ID, &e.ExpiredAt)
	s.m.expired[e.ID] = *e
	return nil
}

func (s expiredStore) GetByID(_ context.Context, id string) (*models.ExpiredListing, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.expired[id]
	if !ok {
		return nil, fmt.Errorf("archived listing %s: %w", id, models.ErrNotFound)
	}
	return &e, nil
}

func (s expiredStore) ListByUser(_ context.Context, userID string) ([]models.ExpiredListing, error) {
	return s.list(func(e models.ExpiredListing) bool { return e.UserID == userID }), nil
}

func (s expiredStore) ListAll(_ context.Context) ([]models.ExpiredListing, error) {
	return s.list(func(models.ExpiredListing) bool { return true }), nil
}

func (s expiredStore) list(keep func(models.ExpiredListing) bool) []models.ExpiredListing {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.ExpiredListing
	for _, e := range s.m.expired {
		if keep(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b models.ExpiredListing) int { return b.ExpiredAt.Compare(a.ExpiredAt) })
	return out
}

func (s expiredStore) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("expired.delete"); err != nil {
		return err
	}
	if _, ok := s.m.expired[id]; !ok {
		return fmt.Errorf("archived listing %s: %w", id, models.ErrNotFound)
	}
	delete(s.m.expired, id)
	return nil
}

type supportStore struct{ m *Memory }

func (s supportStore) Create(_ context.Context, msg *models.SupportMessage) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failure("support.create"); err != nil {
		return err
	}
	msg.ID = ""
	msg.CreatedAt = time.Time{}
	s.m.stamp(&msg.ID, &msg.CreatedAt)
	s.m.support[msg.ID] = *msg
	return nil
}

func (s supportStore) ListUnread(_ context.Context) ([]models.SupportMessage, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.SupportMessage
	for _, msg := range s.m.support {
		if !msg.Read {
			out = append(out, msg)
		}
	}
	slices.SortFunc(out, func(a, b models.SupportMessage) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s supportStore) CountUnread(ctx context.Context) (int, error) {
	msgs, err := s.ListUnread(ctx)
	return len(msgs), err
}

func (s supportStore) MarkRead(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	msg, ok := s.m.support[id]
	if !ok {
		return fmt.Errorf("support message %s: %w", id, models.ErrNotFound)
	}
	msg.Read = true
	s.m.support[id] = msg
	return nil
}
