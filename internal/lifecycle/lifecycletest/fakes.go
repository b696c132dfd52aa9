package lifecycletest

import (
	"context"
	"sync"

	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/models"
)

var (
	_ lifecycle.Announcer = (*Announcer)(nil)
	_ lifecycle.Mailer    = (*Mailer)(nil)
	_ lifecycle.Extractor = ExtractorFunc(nil)
)

// Announcer records channel operations.
type Announcer struct {
	mu sync.Mutex

	Published []string
	Edited    []int
	Removed   []int

	// Err makes every operation fail.
	Err error
	// NextMessageID is returned and incremented by Publish.
	NextMessageID int
}

func (a *Announcer) Publish(_ context.Context, l *models.Listing) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return 0, a.Err
	}
	a.NextMessageID++
	a.Published = append(a.Published, l.Code)
	return a.NextMessageID, nil
}

func (a *Announcer) Edit(_ context.Context, messageID int, _ *models.Listing) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.Edited = append(a.Edited, messageID)
	return nil
}

func (a *Announcer) Remove(_ context.Context, messageID int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.Removed = append(a.Removed, messageID)
	return nil
}

// Mailer records sent messages.
type Mailer struct {
	mu sync.Mutex

	Sent []models.EmailMessage
	// Err makes Send fail without recording.
	Err error
}

func (m *Mailer) Send(_ context.Context, msg models.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Messages returns a copy of the sent messages.
func (m *Mailer) Messages() []models.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.EmailMessage(nil), m.Sent...)
}

// ExtractorFunc adapts a function to lifecycle.Extractor.
type ExtractorFunc func(ctx context.Context, text string) (*models.Listing, error)

func (f ExtractorFunc) ExtractListing(ctx context.Context, text string) (*models.Listing, error) {
	return f(ctx, text)
}
