package reveal

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"go.uber.org/atomic"
)

const (
	revealedTitle       = "Batch revealed successfully"
	revealFailedTitle   = "Error revealing batch upload"
	notificationTimeout = 5000
)

// ErrPasswordRequired is the field error of an empty password.
var ErrPasswordRequired = errors.New("password is required")

// Modal is the reveal dialog of one batch.
type Modal struct {
	user     string
	batch    interfaces.BatchToReveal
	revealer interfaces.Revealer
	notifier interfaces.Notifier
	log      *slog.Logger

	open    atomic.Bool
	loading atomic.Bool

	mu         sync.Mutex
	fieldError error
	lastError  error
}

func NewModal(user string, batch interfaces.BatchToReveal, revealer interfaces.Revealer, notifier interfaces.Notifier, log *slog.Logger) *Modal {
	return &Modal{
		user:     user,
		batch:    batch,
		revealer: revealer,
		notifier: notifier,
		log:      log.With("user", user, "batchId", batch.BatchID),
	}
}

// Title is the dialog heading.
func (m *Modal) Title() string {
	return "Reveal Password for " + m.batch.PlaceholderMetadata.Name
}

func (m *Modal) Open() {
	m.open.Store(true)
}

// Close hides the dialog. A reveal in flight is not cancelled.
func (m *Modal) Close() {
	m.open.Store(false)
}

func (m *Modal) IsOpen() bool {
	return m.open.Load()
}

func (m *Modal) IsLoading() bool {
	return m.loading.Load()
}

// FieldError returns the validation error of the password field.
func (m *Modal) FieldError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fieldError
}

// LastError returns the error of the last failed reveal.
func (m *Modal) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// Submit reveals the batch with password. The dialog is closed on success
// and left open on failure.
func (m *Modal) Submit(ctx context.Context, password string) error {
	if password == "" {
		m.setErrors(ErrPasswordRequired, nil)
		return ErrPasswordRequired
	}
	m.setErrors(nil, nil)

	m.loading.Store(true)
	defer m.loading.Store(false)

	err := m.revealer.Reveal(ctx, interfaces.RevealRequest{
		BatchID:  m.batch.BatchID,
		Password: password,
	})
	if err != nil {
		m.log.Error("Reveal failed", "err", err)
		m.setErrors(nil, err)
		m.notify(ctx, revealFailedTitle, interfaces.NotificationError)
		return err
	}

	m.log.Info("Batch revealed")
	m.notify(ctx, revealedTitle, interfaces.NotificationSuccess)
	m.Close()
	return nil
}

func (m *Modal) setErrors(field, last error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fieldError = field
	m.lastError = last
}

func (m *Modal) notify(ctx context.Context, title string, status interfaces.NotificationStatus) {
	m.notifier.Notify(ctx, m.user, interfaces.Notification{
		Title:    title,
		Status:   status,
		Duration: notificationTimeout,
	})
}
