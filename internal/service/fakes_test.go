package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

// memDocuments is an in-memory DocumentRepository with the same contract as
// the postgres one.
type memDocuments struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Document
	cats   map[int64]model.Category
	clock  time.Time
}

func newMemDocuments(cats ...model.Category) *memDocuments {
	m := &memDocuments{
		rows:  map[int64]model.Document{},
		cats:  map[int64]model.Category{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, c := range cats {
		m.cats[c.ID] = c
	}
	return m
}

func (m *memDocuments) joined(d model.Document) *model.Document {
	c := m.cats[d.CategoryID]
	d.Category = &c
	if d.Description != nil {
		desc := *d.Description
		d.Description = &desc
	}
	return &d
}

func (m *memDocuments) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cats[doc.CategoryID]; !ok {
		return nil, fmt.Errorf("%w: documents_category_id_fkey", repository.ErrInvalidReference)
	}
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	d := *doc
	d.ID = m.nextID
	d.UploadedAt = m.clock
	d.UpdatedAt = m.clock
	d.Category = nil
	m.rows[d.ID] = d
	return m.joined(d), nil
}

func (m *memDocuments) FindByID(_ context.Context, id int64) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.joined(d), nil
}

func (m *memDocuments) List(_ context.Context, f repository.DocumentFilter) (*repository.PageResult[model.Document], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Document
	for _, d := range m.rows {
		if d.UserID != f.UserID {
			continue
		}
		if f.CategoryID != nil && d.CategoryID != *f.CategoryID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(f.Search)) {
			continue
		}
		all = append(all, *m.joined(d))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UploadedAt.Equal(all[j].UploadedAt) {
			return all[i].UploadedAt.After(all[j].UploadedAt)
		}
		return all[i].ID > all[j].ID
	})
	items := []model.Document{}
	for i := f.Offset; i < len(all) && i < f.Offset+f.Limit; i++ {
		items = append(items, all[i])
	}
	return &repository.PageResult[model.Document]{Items: items, Total: len(all)}, nil
}

func (m *memDocuments) Update(_ context.Context, id int64, ch repository.DocumentChanges) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ch.CategoryID != nil {
		if _, ok := m.cats[*ch.CategoryID]; !ok {
			return nil, repository.ErrInvalidReference
		}
		d.CategoryID = *ch.CategoryID
	}
	if ch.Name != nil {
		d.Name = *ch.Name
	}
	if ch.Description != nil {
		desc := *ch.Description
		d.Description = &desc
	}
	m.clock = m.clock.Add(time.Second)
	d.UpdatedAt = m.clock
	m.rows[id] = d
	return m.joined(d), nil
}

func (m *memDocuments) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// memStore is an ObjectStore keeping payloads in memory.
type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	seq       int
	deleteErr error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Upload(_ context.Context, r io.ReadSeeker, in storage.UploadInput) (storage.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.UploadResult{}, err
	}
	s.seq++
	key := storage.ObjectKey(in.OwnerID, time.UnixMilli(int64(s.seq)), in.FileName)
	s.objects[key] = b
	return storage.UploadResult{Key: key, Locator: "http://minio.test/docs/" + key}, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *memStore) SignDownloadURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("http://minio.test/docs/%s?expires=%d", key, int(ttl.Seconds())), nil
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

type published struct {
	UserID  int64
	Event   string
	Payload any
}

// recorder is a Notifier that remembers every event.
type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) PublishToUser(userID int64, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{UserID: userID, Event: event, Payload: payload})
}

func (r *recorder) PublishGlobal(event string, payload any) {
	r.PublishToUser(0, event, payload)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}
