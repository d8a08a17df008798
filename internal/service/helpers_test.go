package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"studydocs/internal/identity"
	"studydocs/internal/model"
	"studydocs/internal/repository"
)

const (
	ownerA = "11111111-1111-4111-8111-111111111111"
	ownerB = "22222222-2222-4222-8222-222222222222"
	ownerC = "33333333-3333-4333-8333-333333333333"
	docID  = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
)

var (
	studentA  = identity.NewCaller(model.Principal{ID: "user-a", Role: model.RoleStudent}, ownerA, nil)
	studentB  = identity.NewCaller(model.Principal{ID: "user-b", Role: model.RoleStudent}, ownerB, nil)
	orphan    = identity.NewCaller(model.Principal{ID: "user-x", Role: model.RoleStudent}, "", identity.ErrProfileNotFound)
	advisor   = identity.NewCaller(model.Principal{ID: "advisor-1", Role: model.RoleAdvisor}, "", nil)
	admin     = identity.NewCaller(model.Principal{ID: "admin-1", Role: model.RoleAdmin}, "", nil)
	plainUser = identity.NewCaller(model.Principal{ID: "user-u", Role: model.RoleUser}, "", nil)
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
)

// memDocuments is an in-memory DocumentRepository used to exercise the service against a real backend.
type memDocuments struct {
	mu        sync.Mutex
	docs      map[string]model.Document
	createErr error
}

func newMemDocuments() *memDocuments {
	return &memDocuments{docs: map[string]model.Document{}}
}

var _ repository.DocumentRepository = (*memDocuments)(nil)

func (m *memDocuments) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.docs[doc.ID] = *doc
	out := *doc
	return &out, nil
}

func (m *memDocuments) FindByID(_ context.Context, id string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (m *memDocuments) List(_ context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.Document, 0, len(m.docs))
	for _, d := range m.docs {
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	total := len(items)
	if pq.Offset >= total {
		return &repository.PageResult[model.Document]{Items: []model.Document{}, Total: total}, nil
	}
	end := pq.Offset + pq.Limit
	if end > total {
		end = total
	}
	return &repository.PageResult[model.Document]{Items: items[pq.Offset:end], Total: total}, nil
}

func (m *memDocuments) ListByOwner(_ context.Context, ownerID string) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Document
	for _, d := range m.docs {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocuments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.docs, id)
	return nil
}
