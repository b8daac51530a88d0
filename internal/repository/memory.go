package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
	"github.com/dharsanguruparan/OfferDesk/internal/model"
)

// MemoryRepository keeps applications in a map guarded by an RWMutex. The
// email, mobile and reference indexes are updated under the same write lock
// as the map, so uniqueness holds exactly as a database constraint would.
type MemoryRepository struct {
	mu          sync.RWMutex
	nextID      int64
	apps        map[int64]*model.Application
	byEmail     map[string]int64
	byMobile    map[string]int64
	byReference map[string]int64
}

// NewMemory constructs an empty MemoryRepository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		apps:        make(map[int64]*model.Application),
		byEmail:     make(map[string]int64),
		byMobile:    make(map[string]int64),
		byReference: make(map[string]int64),
	}
}

func (m *MemoryRepository) EnsureUnique(_ context.Context, email, mobile string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.byEmail[email]; ok {
		return conflictFor(FieldEmail, nil)
	}
	if _, ok := m.byMobile[mobile]; ok {
		return conflictFor(FieldMobile, nil)
	}
	return nil
}

func (m *MemoryRepository) Create(_ context.Context, app *model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[app.Email]; ok {
		return conflictFor(FieldEmail, nil)
	}
	if _, ok := m.byMobile[app.MobileNumber]; ok {
		return conflictFor(FieldMobile, nil)
	}
	var ref string
	for attempt := 0; ; attempt++ {
		if attempt == maxReferenceAttempts {
			return apperror.Internal("no free reference code", nil)
		}
		candidate, err := NewReference()
		if err != nil {
			return apperror.Internal("generate reference", err)
		}
		if _, taken := m.byReference[candidate]; !taken {
			ref = candidate
			break
		}
	}
	m.nextID++
	ts := now()
	app.ID = m.nextID
	app.ReferenceID = ref
	app.Status = model.StatusPending
	app.OfferLetter = nil
	app.CreatedAt = ts
	app.UpdatedAt = ts

	m.apps[app.ID] = clone(app)
	m.byEmail[app.Email] = app.ID
	m.byMobile[app.MobileNumber] = app.ID
	m.byReference[ref] = app.ID
	return nil
}

func (m *MemoryRepository) List(_ context.Context) ([]model.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	apps := make([]model.Application, 0, len(m.apps))
	for _, app := range m.apps {
		apps = append(apps, *clone(app))
	}
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.After(apps[j].CreatedAt)
		}
		return apps[i].ID > apps[j].ID
	})
	return apps, nil
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (*model.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, notFound()
	}
	return clone(app), nil
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, id int64, status model.Status) (*model.Application, error) {
	if !status.Valid() {
		return nil, invalidStatus(status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, notFound()
	}
	app.Status = status
	app.UpdatedAt = now()
	return clone(app), nil
}

func (m *MemoryRepository) AttachOfferLetter(_ context.Context, id int64, storedName string) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, notFound()
	}
	name := storedName
	app.OfferLetter = &name
	app.UpdatedAt = now()
	return clone(app), nil
}

func (m *MemoryRepository) OfferLetter(_ context.Context, referenceID, email string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byReference[referenceID]
	if !ok {
		return "", apperror.NotFound("offer letter not found")
	}
	app := m.apps[id]
	if app.Email != email || app.Status != model.StatusApproved || app.OfferLetter == nil {
		return "", apperror.NotFound("offer letter not found")
	}
	return *app.OfferLetter, nil
}

// clone copies app including the values behind its pointer fields, so callers
// never share state with the map.
func clone(app *model.Application) *model.Application {
	out := *app
	if app.YearsOfExperience != nil {
		y := *app.YearsOfExperience
		out.YearsOfExperience = &y
	}
	if app.OfferLetter != nil {
		name := *app.OfferLetter
		out.OfferLetter = &name
	}
	return &out
}
