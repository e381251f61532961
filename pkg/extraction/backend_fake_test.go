package extraction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-reqextract-be/pkg/ragstore"
)

// fakeBackend scripts the indexing backend for tests. CountDocuments
// walks countSeq and then repeats the final value.
type fakeBackend struct {
	mu sync.Mutex

	createErr  error
	uploadErr  error
	rawTextErr error
	countErr   error
	chatFn     func(prompt string) (string, error)

	countSeq []int
	countIdx int

	created  []string
	deleted  []string
	uploads  int
	rawTexts int
	chats    []string
}

func (f *fakeBackend) CreateWorkspace(ctx context.Context, name string) (*ragstore.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, name)
	return &ragstore.Workspace{Slug: name, Name: name}, nil
}

func (f *fakeBackend) DeleteWorkspace(ctx context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, slug)
	return nil
}

func (f *fakeBackend) UploadDocument(ctx context.Context, slug, fileName string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return f.uploadErr
}

func (f *fakeBackend) UploadRawText(ctx context.Context, slug, title, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawTexts++
	return f.rawTextErr
}

func (f *fakeBackend) CountDocuments(ctx context.Context, slug string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	if len(f.countSeq) == 0 {
		return 0, nil
	}
	count := f.countSeq[f.countIdx]
	if f.countIdx < len(f.countSeq)-1 {
		f.countIdx++
	}
	return count, nil
}

func (f *fakeBackend) Chat(ctx context.Context, slug, prompt string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	f.chats = append(f.chats, prompt)
	fn := f.chatFn
	f.mu.Unlock()
	if fn == nil {
		return "", nil
	}
	return fn(prompt)
}

func (f *fakeBackend) Diagnose(ctx context.Context) (string, error) {
	return "fake backend: all folders empty", nil
}

func (f *fakeBackend) deletedSlugs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// fakeDownloader serves scripted bytes per attachment ID.
type fakeDownloader struct {
	files map[string][]byte
	err   error
}

func (f *fakeDownloader) Download(ctx context.Context, id string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	content, ok := f.files[id]
	if !ok {
		return nil, fmt.Errorf("attachment %s not found", id)
	}
	return content, nil
}

// fastMonitorConfig shrinks the polling thresholds so monitor scenarios
// run in milliseconds while keeping the same ratios as the defaults.
func fastMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:    2 * time.Millisecond,
		Ceiling:         100 * time.Millisecond,
		StuckPolls:      6,
		StuckElapsed:    30 * time.Millisecond,
		HardZeroElapsed: 60 * time.Millisecond,
	}
}
