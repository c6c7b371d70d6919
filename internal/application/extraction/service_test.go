package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sperow/medrecords/internal/domain/records"
)

type fakeStore struct {
	putKey     string
	putErr     error
	removedKey string
	removeErr  error
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.putKey = key
	return f.putErr
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	f.removedKey = key
	return f.removeErr
}

type fakeOCR struct {
	startErr error
	pages    []*records.TextDetectionPage
	calls    int
}

func (f *fakeOCR) StartTextDetection(ctx context.Context, key string) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	return "job-1", nil
}

func (f *fakeOCR) GetTextDetection(ctx context.Context, jobID, nextToken string) (*records.TextDetectionPage, error) {
	if f.calls >= len(f.pages) {
		return nil, errors.New("no more pages")
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func newService(store *fakeStore, ocr *fakeOCR) *Service {
	return &Service{
		Store:        store,
		OCR:          ocr,
		PollInterval: time.Millisecond,
		Log:          zerolog.Nop(),
	}
}

func TestExtractText_JoinsLinesAcrossPages(t *testing.T) {
	store := &fakeStore{}
	ocr := &fakeOCR{pages: []*records.TextDetectionPage{
		{Status: records.JobInProgress},
		{Status: records.JobSucceeded, Lines: []string{"Patient:", "John Doe"}, NextToken: "p2"},
		{Status: records.JobSucceeded, Lines: []string{"BP 130/85"}},
	}}

	text, err := newService(store, ocr).ExtractText(context.Background(), []byte("pdf"), "visit.pdf")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "Patient: John Doe BP 130/85" {
		t.Fatalf("text = %q", text)
	}
	if store.putKey != "uploads/visit.pdf" {
		t.Fatalf("put key = %q", store.putKey)
	}
	if store.removedKey != "uploads/visit.pdf" {
		t.Fatalf("temp object not removed, removedKey = %q", store.removedKey)
	}
}

func TestExtractText_FailedJobKeepsTempObject(t *testing.T) {
	store := &fakeStore{}
	ocr := &fakeOCR{pages: []*records.TextDetectionPage{
		{Status: records.JobFailed},
	}}

	_, err := newService(store, ocr).ExtractText(context.Background(), []byte("pdf"), "visit.pdf")
	if !errors.Is(err, records.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
	if store.removedKey != "" {
		t.Fatal("temp object must not be removed when the job fails")
	}
}

func TestExtractText_EmptyTextIsFailure(t *testing.T) {
	store := &fakeStore{}
	ocr := &fakeOCR{pages: []*records.TextDetectionPage{
		{Status: records.JobSucceeded},
	}}

	_, err := newService(store, ocr).ExtractText(context.Background(), []byte("pdf"), "blank.pdf")
	if !errors.Is(err, records.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
	if store.removedKey != "uploads/blank.pdf" {
		t.Fatal("succeeded job should still clean up the temp object")
	}
}

func TestExtractText_UploadFailure(t *testing.T) {
	store := &fakeStore{putErr: errors.New("bucket down")}

	_, err := newService(store, &fakeOCR{}).ExtractText(context.Background(), []byte("pdf"), "visit.pdf")
	if !errors.Is(err, records.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestExtractText_StartFailure(t *testing.T) {
	store := &fakeStore{}
	ocr := &fakeOCR{startErr: errors.New("throttled")}

	_, err := newService(store, ocr).ExtractText(context.Background(), []byte("pdf"), "visit.pdf")
	if !errors.Is(err, records.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
	if store.removedKey != "" {
		t.Fatal("temp object must not be removed on start failure")
	}
}

func TestExtractText_CleanupFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{removeErr: errors.New("gone already")}
	ocr := &fakeOCR{pages: []*records.TextDetectionPage{
		{Status: records.JobSucceeded, Lines: []string{"ok"}},
	}}

	text, err := newService(store, ocr).ExtractText(context.Background(), []byte("pdf"), "visit.pdf")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "ok" {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractText_ContextCancelWhilePolling(t *testing.T) {
	store := &fakeStore{}
	ocr := &fakeOCR{pages: []*records.TextDetectionPage{
		{Status: records.JobInProgress},
		{Status: records.JobInProgress},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(store, ocr).ExtractText(ctx, []byte("pdf"), "visit.pdf")
	if !errors.Is(err, records.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
}
