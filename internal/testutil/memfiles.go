package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/staffdesk/ems/internal/filestore"
)

type MemFiles struct {
	mu        sync.Mutex
	objects   map[string][]byte
	DeleteErr error
}

func NewMemFiles() *MemFiles {
	return &MemFiles{objects: map[string][]byte{}}
}

func (m *MemFiles) Save(ctx context.Context, key string, r filestore.ReadSeekCloser, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemFiles) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, filestore.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemFiles) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *MemFiles) URL(key string) string {
	return "/files/" + key
}

func (m *MemFiles) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

// MailRecorder keeps every delivered mail. Setting Err makes Send fail.
type MailRecorder struct {
	mu   sync.Mutex
	Err  error
	Sent []SentMail
}

func (f *MailRecorder) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *MailRecorder) Last() SentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return SentMail{}
	}
	return f.Sent[len(f.Sent)-1]
}
