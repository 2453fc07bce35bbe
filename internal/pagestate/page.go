// Package pagestate holds the transient state of the membership page for one session: which tier
// is selected, whether the payment modal is open and which notifications are showing.
package pagestate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/homwrkk/IUI/internal/membership"
)

var (
	ErrNotAnUpgrade = errors.New("selected tier is not an upgrade")
	ErrNoSelection  = errors.New("no tier selected")
	ErrClosed       = errors.New("page state closed")
)

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

type Toast struct {
	ID        string
	Kind      ToastKind
	Message   string
	CreatedAt time.Time
}

// View is a copy of the page state safe to hand to a renderer.
type View struct {
	CurrentTier  membership.Tier
	SelectedTier membership.Tier
	BillingCycle membership.BillingCycle
	ModalOpen    bool
	Toasts       []Toast
}

// Page is safe for concurrent use. Toasts expire after the configured TTL through timers owned by
// the Page; Close stops them.
type Page struct {
	mu        sync.Mutex
	current   membership.Tier
	selected  membership.Tier
	cycle     membership.BillingCycle
	modalOpen bool
	toasts    []Toast
	timers    map[string]*time.Timer
	ttl       time.Duration
	closed    bool
}

// New builds the page for a member whose persisted tier is current, or "" for a non-member. An
// unrecognised persisted tier is an error rather than a silent default.
func New(current string, ttl time.Duration) (*Page, error) {
	p := &Page{
		cycle:  membership.CycleMonthly,
		timers: make(map[string]*time.Timer),
		ttl:    ttl,
	}
	if current != "" {
		tier, err := membership.ParseTier(current)
		if err != nil {
			return nil, fmt.Errorf("current tier: %w", err)
		}
		p.current = tier
	}
	return p, nil
}

// SelectTier opens the payment modal for raw when it is a valid upgrade from the current tier.
// Otherwise the modal stays closed and an error toast explains why.
func (p *Page) SelectTier(raw string) error {
	tier, err := membership.ParseTier(raw)
	if err != nil {
		p.Notify(ToastError, "That membership tier does not exist")
		return err
	}

	p.mu.Lock()
	current := p.current
	allowed := current == "" || membership.IsValidUpgrade(current, tier)
	if allowed {
		p.selected = tier
		p.modalOpen = true
	}
	p.mu.Unlock()

	if !allowed {
		p.Notify(ToastError, fmt.Sprintf("You are already a %s member", membership.MustDefinition(current).DisplayName))
		return fmt.Errorf("%w: %s -> %s", ErrNotAnUpgrade, current, tier)
	}
	return nil
}

func (p *Page) SetCycle(raw string) error {
	cycle, err := membership.ParseBillingCycle(raw)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.cycle = cycle
	p.mu.Unlock()
	return nil
}

func (p *Page) CloseModal() {
	p.mu.Lock()
	p.modalOpen = false
	p.selected = ""
	p.mu.Unlock()
}

// CompletePayment records a successful payment for the selected tier, closes the modal and
// announces the new membership.
func (p *Page) CompletePayment() (membership.Tier, error) {
	p.mu.Lock()
	tier := p.selected
	if tier == "" {
		p.mu.Unlock()
		return "", ErrNoSelection
	}
	p.current = tier
	p.selected = ""
	p.modalOpen = false
	p.mu.Unlock()

	p.Notify(ToastSuccess, fmt.Sprintf("Welcome to %s!", membership.MustDefinition(tier).DisplayName))
	return tier, nil
}

// Notify shows a toast and schedules its removal after the TTL. It returns the toast id, or ""
// once the page is closed.
func (p *Page) Notify(kind ToastKind, message string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ""
	}

	toast := Toast{
		ID:        uuid.New().String(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}
	p.toasts = append(p.toasts, toast)
	if p.ttl > 0 {
		id := toast.ID
		p.timers[id] = time.AfterFunc(p.ttl, func() { p.Dismiss(id) })
	}
	return toast.ID
}

// Dismiss removes a toast. It reports whether the toast was still showing.
func (p *Page) Dismiss(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.timers[id]; ok {
		t.Stop()
		delete(p.timers, id)
	}
	for i, t := range p.toasts {
		if t.ID == id {
			p.toasts = append(p.toasts[:i], p.toasts[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Page) Toasts() []Toast {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Toast, len(p.toasts))
	copy(out, p.toasts)
	return out
}

func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	toasts := make([]Toast, len(p.toasts))
	copy(toasts, p.toasts)
	return View{
		CurrentTier:  p.current,
		SelectedTier: p.selected,
		BillingCycle: p.cycle,
		ModalOpen:    p.modalOpen,
		Toasts:       toasts,
	}
}

// Close stops pending expiry timers. Toasts already showing are kept; new ones are refused.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
	p.closed = true
}
