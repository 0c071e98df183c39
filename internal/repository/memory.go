package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"fitness-tracker/internal/model"
)

// MemoryDocumentStore keeps documents in process. Uniqueness of (owner, date) is checked
// and recorded under the same lock as the insert.
type MemoryDocumentStore[T Document] struct {
	name   string
	unique bool
	mu     sync.RWMutex
	docs   map[string]T
	dated  map[string]string
}

func NewMemoryDocumentStore[T Document](name string, uniquePerDate bool) *MemoryDocumentStore[T] {
	return &MemoryDocumentStore[T]{
		name:   name,
		unique: uniquePerDate,
		docs:   map[string]T{},
		dated:  map[string]string{},
	}
}

func datedKey(owner string, date string) string {
	return owner + "\x00" + date
}

func (s *MemoryDocumentStore[T]) Insert(_ context.Context, doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.RecordID()]; exists {
		return fmt.Errorf("insert %s %s: %w", s.name, doc.RecordID(), model.ErrConflict)
	}

	if s.unique {
		key := datedKey(doc.RecordOwner(), doc.RecordDate())
		if _, taken := s.dated[key]; taken {
			return fmt.Errorf("insert %s for %s: %w", s.name, doc.RecordDate(), model.ErrConflict)
		}
		s.dated[key] = doc.RecordID()
	}

	s.docs[doc.RecordID()] = doc
	return nil
}

func (s *MemoryDocumentStore[T]) FindByID(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("find %s %s: %w", s.name, id, model.ErrNotFound)
	}
	return doc, nil
}

func (s *MemoryDocumentStore[T]) FindByOwner(_ context.Context, owner string, window model.DateRange) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0)
	for _, doc := range s.docs {
		if doc.RecordOwner() != owner {
			continue
		}
		if window.From != "" && doc.RecordDate() < window.From {
			continue
		}
		if window.To != "" && doc.RecordDate() > window.To {
			continue
		}
		out = append(out, doc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RecordDate() != out[j].RecordDate() {
			return out[i].RecordDate() < out[j].RecordDate()
		}
		return out[i].RecordID() < out[j].RecordID()
	})
	return out, nil
}

func (s *MemoryDocumentStore[T]) FindByOwnerAndDate(ctx context.Context, owner string, date string) (T, error) {
	docs, _ := s.FindByOwner(ctx, owner, model.DateRange{From: date, To: date})
	if len(docs) == 0 {
		var zero T
		return zero, fmt.Errorf("find %s for %s: %w", s.name, date, model.ErrNotFound)
	}
	return docs[0], nil
}

func (s *MemoryDocumentStore[T]) Replace(_ context.Context, doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.docs[doc.RecordID()]
	if !ok {
		return fmt.Errorf("replace %s %s: %w", s.name, doc.RecordID(), model.ErrNotFound)
	}

	if s.unique {
		oldKey := datedKey(current.RecordOwner(), current.RecordDate())
		newKey := datedKey(doc.RecordOwner(), doc.RecordDate())
		if oldKey != newKey {
			if _, taken := s.dated[newKey]; taken {
				return fmt.Errorf("replace %s for %s: %w", s.name, doc.RecordDate(), model.ErrConflict)
			}
			delete(s.dated, oldKey)
			s.dated[newKey] = doc.RecordID()
		}
	}

	s.docs[doc.RecordID()] = doc
	return nil
}

func (s *MemoryDocumentStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("delete %s %s: %w", s.name, id, model.ErrNotFound)
	}

	if s.unique {
		delete(s.dated, datedKey(doc.RecordOwner(), doc.RecordDate()))
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryDocumentStore[T]) ExistsForOwnerAndDate(ctx context.Context, owner string, date string) (bool, error) {
	docs, _ := s.FindByOwner(ctx, owner, model.DateRange{From: date, To: date})
	return len(docs) > 0, nil
}

type MemoryCredentialStore struct {
	mu    sync.RWMutex
	users map[string]model.Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{users: map[string]model.Credential{}}
}

func (s *MemoryCredentialStore) FindByEmail(_ context.Context, email string) (model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.users[strings.ToLower(email)]
	if !ok {
		return model.Credential{}, fmt.Errorf("find credential: %w", model.ErrNotFound)
	}
	return cred, nil
}

func (s *MemoryCredentialStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[strings.ToLower(email)]
	return ok, nil
}

func (s *MemoryCredentialStore) Create(_ context.Context, cred model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(cred.Email)
	if _, ok := s.users[key]; ok {
		return fmt.Errorf("create credential: %w", model.ErrAlreadyExists)
	}
	s.users[key] = cred
	return nil
}

func (s *MemoryCredentialStore) SetPremium(_ context.Context, email string, premium bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	cred, ok := s.users[key]
	if !ok {
		return fmt.Errorf("set premium: %w", model.ErrNotFound)
	}
	cred.IsPremium = premium
	cred.UpdatedAt = time.Now().UTC()
	s.users[key] = cred
	return nil
}

type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]model.UserProfile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: map[string]model.UserProfile{}}
}

func (s *MemoryProfileStore) Get(_ context.Context, email string) (model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[email]
	if !ok {
		return model.UserProfile{}, fmt.Errorf("find profile: %w", model.ErrNotFound)
	}
	return profile, nil
}

func (s *MemoryProfileStore) Upsert(_ context.Context, profile model.UserProfile) (model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.UpdatedAt = time.Now().UTC()
	s.profiles[profile.Email] = profile
	return profile, nil
}

type MemoryTemplateStore struct {
	mu        sync.RWMutex
	nextID    int64
	nextExID  int64
	templates map[int64]model.WorkoutTemplate
	exercises map[int64][]model.TemplateExercise
}

func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{
		templates: map[int64]model.WorkoutTemplate{},
		exercises: map[int64][]model.TemplateExercise{},
	}
}

func (s *MemoryTemplateStore) Create(_ context.Context, tpl model.WorkoutTemplate, exercises []model.TemplateExercise) (model.WorkoutTemplate, []model.TemplateExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	tpl.ID = s.nextID
	s.templates[tpl.ID] = tpl
	s.exercises[tpl.ID] = s.numberExercisesLocked(tpl.ID, exercises)
	return tpl, slices.Clone(s.exercises[tpl.ID]), nil
}

func (s *MemoryTemplateStore) numberExercisesLocked(templateID int64, exercises []model.TemplateExercise) []model.TemplateExercise {
	out := make([]model.TemplateExercise, len(exercises))
	for i, ex := range exercises {
		s.nextExID++
		ex.ID = s.nextExID
		ex.TemplateID = templateID
		ex.Position = i
		out[i] = ex
	}
	return out
}

func (s *MemoryTemplateStore) FindByID(_ context.Context, id int64) (model.WorkoutTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[id]
	if !ok {
		return model.WorkoutTemplate{}, fmt.Errorf("find template %d: %w", id, model.ErrNotFound)
	}
	return tpl, nil
}

func (s *MemoryTemplateStore) Exercises(_ context.Context, templateID int64) ([]model.TemplateExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.exercises[templateID]), nil
}

func (s *MemoryTemplateStore) ListByOwner(_ context.Context, owner string) ([]model.WorkoutTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.WorkoutTemplate, 0)
	for _, tpl := range s.templates {
		if tpl.Owner == owner {
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryTemplateStore) Update(_ context.Context, tpl model.WorkoutTemplate, exercises []model.TemplateExercise) (model.WorkoutTemplate, []model.TemplateExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[tpl.ID]; !ok {
		return model.WorkoutTemplate{}, nil, fmt.Errorf("update template %d: %w", tpl.ID, model.ErrNotFound)
	}
	s.templates[tpl.ID] = tpl
	s.exercises[tpl.ID] = s.numberExercisesLocked(tpl.ID, exercises)
	return tpl, slices.Clone(s.exercises[tpl.ID]), nil
}

func (s *MemoryTemplateStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return fmt.Errorf("delete template %d: %w", id, model.ErrNotFound)
	}
	delete(s.templates, id)
	delete(s.exercises, id)
	return nil
}

type MemoryAuditStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries []model.AuditEntry
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) Log(_ context.Context, entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryAuditStore) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	page, limit := normalizePage(query.Page, query.Limit)

	s.mu.RLock()
	matched := make([]model.AuditEntry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if query.Actor != "" && entry.Actor != query.Actor {
			continue
		}
		if query.Action != "" && !strings.EqualFold(entry.Action, query.Action) {
			continue
		}
		matched = append(matched, entry)
	}
	s.mu.RUnlock()

	total := len(matched)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	return matched[start:end], pageMeta(page, limit, total), nil
}
