package uploads_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/editor"
	"github.com/goliatone/go-blockdoc/internal/uploads"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

type reply struct {
	result interfaces.UploadResult
	err    error
}

// manualUploader blocks every upload until the test answers it by file name.
type manualUploader struct {
	mu      sync.Mutex
	replies map[string]chan reply
	slots   []interfaces.UploadSlot
}

func newManualUploader() *manualUploader {
	return &manualUploader{replies: map[string]chan reply{}}
}

func (u *manualUploader) channel(name string) chan reply {
	u.mu.Lock()
	defer u.mu.Unlock()
	ch, ok := u.replies[name]
	if !ok {
		ch = make(chan reply, 1)
		u.replies[name] = ch
	}
	return ch
}

func (u *manualUploader) Upload(ctx context.Context, file interfaces.UploadFile, slot interfaces.UploadSlot) (interfaces.UploadResult, error) {
	u.mu.Lock()
	u.slots = append(u.slots, slot)
	u.mu.Unlock()
	select {
	case r := <-u.channel(file.Name):
		return r.result, r.err
	case <-ctx.Done():
		return interfaces.UploadResult{}, ctx.Err()
	}
}

func (u *manualUploader) succeed(name, url string) {
	u.channel(name) <- reply{result: interfaces.UploadResult{URL: url, Name: name, Size: 100}}
}

func (u *manualUploader) fail(name string, err error) {
	u.channel(name) <- reply{err: err}
}

func waitFinished(t *testing.T, m *uploads.Manager, uploadID string) uploads.Upload {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if upload, ok := m.Get(uploadID); ok && upload.Phase != uploads.PhasePending {
			return upload
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("upload %s did not finish", uploadID)
	return uploads.Upload{}
}

func newStoreWith(t *testing.T, typ blocks.Type) (*editor.Store, string) {
	t.Helper()
	store := editor.NewStore(editor.WithDocumentKey("trip-1"))
	res, err := store.Dispatch(context.Background(), editor.AddBlock{BlockType: typ})
	if err != nil {
		t.Fatalf("add %s: %v", typ, err)
	}
	return store, res.BlockID
}

func galleryImages(t *testing.T, store *editor.Store, blockID string) []blocks.GalleryImage {
	t.Helper()
	block, ok := store.Document().Find(blockID)
	if !ok {
		t.Fatalf("block %s missing", blockID)
	}
	return block.Data.(*blocks.GalleryData).Images
}

func TestGalleryUploadsCompleteOutOfOrder(t *testing.T) {
	store, galleryID := newStoreWith(t, blocks.TypeGallery)
	uploader := newManualUploader()
	m, err := uploads.NewManager(store, uploader)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()

	first, err := m.Start(ctx, galleryID, interfaces.UploadFile{Name: "a.jpg", Preview: "blob:a"})
	if err != nil {
		t.Fatalf("start a: %v", err)
	}
	second, err := m.Start(ctx, galleryID, interfaces.UploadFile{Name: "b.jpg", Preview: "blob:b"})
	if err != nil {
		t.Fatalf("start b: %v", err)
	}

	images := galleryImages(t, store, galleryID)
	if len(images) != 2 || !images[0].IsUploading || images[0].PreviewURL != "blob:a" || images[1].ID != second {
		t.Fatalf("expected two placeholders got %+v", images)
	}

	uploader.succeed("b.jpg", "https://cdn/b.jpg")
	if upload := waitFinished(t, m, second); upload.Phase != uploads.PhaseCommitted {
		t.Fatalf("expected b committed got %+v", upload)
	}
	images = galleryImages(t, store, galleryID)
	if images[1].URL != "https://cdn/b.jpg" || images[1].IsUploading || !images[0].IsUploading {
		t.Fatalf("expected only b reconciled got %+v", images)
	}

	uploader.succeed("a.jpg", "https://cdn/a.jpg")
	m.Wait()

	images = galleryImages(t, store, galleryID)
	if images[0].ID != first || images[0].URL != "https://cdn/a.jpg" || images[0].IsUploading {
		t.Fatalf("expected a reconciled in place got %+v", images[0])
	}
	if m.Pending() != 0 {
		t.Fatalf("expected no pending uploads")
	}
	for _, upload := range m.Uploads() {
		if upload.Phase != uploads.PhaseCommitted {
			t.Fatalf("expected all committed got %+v", upload)
		}
	}
}

func TestGalleryFailureRemovesOnlyItsImage(t *testing.T) {
	store, galleryID := newStoreWith(t, blocks.TypeGallery)
	uploader := newManualUploader()

	var mu sync.Mutex
	var failures []uploads.Failure
	m, err := uploads.NewManager(store, uploader, uploads.WithOnFailure(func(f uploads.Failure) {
		mu.Lock()
		failures = append(failures, f)
		mu.Unlock()
	}))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()

	okID, err := m.Start(ctx, galleryID, interfaces.UploadFile{Name: "ok.jpg"})
	if err != nil {
		t.Fatalf("start ok: %v", err)
	}
	badID, err := m.Start(ctx, galleryID, interfaces.UploadFile{Name: "bad.jpg"})
	if err != nil {
		t.Fatalf("start bad: %v", err)
	}

	boom := errors.New("storage unavailable")
	uploader.fail("bad.jpg", boom)
	uploader.succeed("ok.jpg", "https://cdn/ok.jpg")
	m.Wait()

	images := galleryImages(t, store, galleryID)
	if len(images) != 1 || images[0].ID != okID || images[0].URL != "https://cdn/ok.jpg" {
		t.Fatalf("expected only ok image to remain got %+v", images)
	}
	bad, _ := m.Get(badID)
	if bad.Phase != uploads.PhaseRolledBack || !errors.Is(bad.Err, boom) {
		t.Fatalf("expected bad upload rolled back got %+v", bad)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(failures) != 1 || failures[0].Upload.ID != badID || !errors.Is(failures[0].Err, boom) {
		t.Fatalf("expected one failure for bad upload got %+v", failures)
	}
}

func TestImageFailureRevertsToEmpty(t *testing.T) {
	store, imageID := newStoreWith(t, blocks.TypeImage)
	uploader := newManualUploader()
	m, err := uploads.NewManager(store, uploader)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := m.Start(context.Background(), imageID, interfaces.UploadFile{Name: "x.jpg", Preview: "blob:x", Size: 42}); err != nil {
		t.Fatalf("start: %v", err)
	}
	block, _ := store.Document().Find(imageID)
	if image := block.Data.(*blocks.ImageData); !image.IsUploading || image.PreviewURL != "blob:x" || image.Size != 42 {
		t.Fatalf("expected placeholder got %+v", image)
	}

	uploader.fail("x.jpg", errors.New("too large"))
	m.Wait()

	block, _ = store.Document().Find(imageID)
	if *block.Data.(*blocks.ImageData) != (blocks.ImageData{}) {
		t.Fatalf("expected empty image got %+v", block.Data)
	}
}

func TestUploadForDeletedBlockIsStale(t *testing.T) {
	store, fileID := newStoreWith(t, blocks.TypeFile)
	uploader := newManualUploader()
	failed := false
	m, err := uploads.NewManager(store, uploader, uploads.WithOnFailure(func(uploads.Failure) { failed = true }))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	uploadID, err := m.Start(context.Background(), fileID, interfaces.UploadFile{Name: "doc.pdf"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := store.Dispatch(context.Background(), editor.DeleteBlock{ID: fileID}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	uploader.succeed("doc.pdf", "https://cdn/doc.pdf")
	m.Wait()

	upload, _ := m.Get(uploadID)
	if upload.Phase != uploads.PhaseRolledBack || !errors.Is(upload.Err, uploads.ErrPlaceholderGone) {
		t.Fatalf("expected stale upload rolled back got %+v", upload)
	}
	if failed {
		t.Fatalf("a stale upload is not a failure")
	}
	if len(store.Document()) != 0 {
		t.Fatalf("stale commit must not resurrect the block")
	}
}

func TestInsertAndStart(t *testing.T) {
	store := editor.NewStore(editor.WithDocumentKey("trip-1"))
	uploader := newManualUploader()
	m, err := uploads.NewManager(store, uploader)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()

	blockID, uploadID, err := m.InsertAndStart(ctx, blocks.TypeFile, "", interfaces.UploadFile{Name: "visa.pdf", Size: 7})
	if err != nil {
		t.Fatalf("insert and start: %v", err)
	}
	uploader.succeed("visa.pdf", "https://cdn/visa.pdf")
	m.Wait()

	block, ok := store.Document().Find(blockID)
	if !ok {
		t.Fatalf("expected file block")
	}
	file := block.Data.(*blocks.FileData)
	if file.URL != "https://cdn/visa.pdf" || file.IsUploading || file.UploadID != "" {
		t.Fatalf("unexpected file payload %+v", file)
	}
	upload, _ := m.Get(uploadID)
	if upload.Phase != uploads.PhaseCommitted || upload.BlockType != blocks.TypeFile {
		t.Fatalf("unexpected upload %+v", upload)
	}

	uploader.mu.Lock()
	slot := uploader.slots[0]
	uploader.mu.Unlock()
	if slot.DocumentKey != "trip-1" || slot.BlockID != blockID || slot.UploadID != uploadID || slot.BlockType != "file" {
		t.Fatalf("unexpected slot %+v", slot)
	}

	if _, _, err := m.InsertAndStart(ctx, blocks.TypeText, "", interfaces.UploadFile{}); !errors.Is(err, blocks.ErrNotUploadable) {
		t.Fatalf("expected ErrNotUploadable got %v", err)
	}
	if len(store.Document()) != 1 {
		t.Fatalf("rejected insert must not add a block")
	}
}

func TestStartRejectsMissingAndTextBlocks(t *testing.T) {
	store, textID := newStoreWith(t, blocks.TypeText)
	m, err := uploads.NewManager(store, newManualUploader())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := m.Start(context.Background(), "missing", interfaces.UploadFile{}); !errors.Is(err, uploads.ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound got %v", err)
	}
	if _, err := m.Start(context.Background(), textID, interfaces.UploadFile{}); !errors.Is(err, blocks.ErrNotUploadable) {
		t.Fatalf("expected ErrNotUploadable got %v", err)
	}
}

func TestUploadTimeoutRollsBack(t *testing.T) {
	store, imageID := newStoreWith(t, blocks.TypeImage)
	m, err := uploads.NewManager(store, newManualUploader(), uploads.WithTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	uploadID, err := m.Start(context.Background(), imageID, interfaces.UploadFile{Name: "slow.jpg"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	m.Wait()

	upload, _ := m.Get(uploadID)
	if upload.Phase != uploads.PhaseRolledBack || !errors.Is(upload.Err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout rollback got %+v", upload)
	}
	block, _ := store.Document().Find(imageID)
	if block.Data.(*blocks.ImageData).IsUploading {
		t.Fatalf("expected placeholder removed")
	}
}

func TestCallerCancellationDoesNotAbortUpload(t *testing.T) {
	store, imageID := newStoreWith(t, blocks.TypeImage)
	uploader := newManualUploader()
	m, err := uploads.NewManager(store, uploader)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	uploadID, err := m.Start(ctx, imageID, interfaces.UploadFile{Name: "x.jpg"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()
	uploader.succeed("x.jpg", "https://cdn/x.jpg")
	m.Wait()

	if upload, _ := m.Get(uploadID); upload.Phase != uploads.PhaseCommitted {
		t.Fatalf("expected committed upload got %+v", upload)
	}
}

func TestEmptyResultIsFailure(t *testing.T) {
	store, imageID := newStoreWith(t, blocks.TypeImage)
	uploader := newManualUploader()
	m, err := uploads.NewManager(store, uploader)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	uploadID, err := m.Start(context.Background(), imageID, interfaces.UploadFile{Name: "x.jpg"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	uploader.succeed("x.jpg", "")
	m.Wait()

	if upload, _ := m.Get(uploadID); !errors.Is(upload.Err, uploads.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult got %+v", upload)
	}
}

func TestNewManagerRequiresCollaborators(t *testing.T) {
	if _, err := uploads.NewManager(nil, newManualUploader()); !errors.Is(err, uploads.ErrStoreRequired) {
		t.Fatalf("expected ErrStoreRequired got %v", err)
	}
	if _, err := uploads.NewManager(editor.NewStore(), nil); !errors.Is(err, uploads.ErrUploaderRequired) {
		t.Fatalf("expected ErrUploaderRequired got %v", err)
	}
}

func TestDuplicateDuringGalleryUploadLeavesNoPlaceholder(t *testing.T) {
	store, galleryID := newStoreWith(t, blocks.TypeGallery)
	uploader := newManualUploader()
	m, err := uploads.NewManager(store, uploader)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()

	done, err := m.Start(ctx, galleryID, interfaces.UploadFile{Name: "done.jpg", Preview: "blob:done"})
	if err != nil {
		t.Fatalf("start done: %v", err)
	}
	uploader.succeed("done.jpg", "https://cdn/done.jpg")
	waitFinished(t, m, done)

	if _, err := m.Start(ctx, galleryID, interfaces.UploadFile{Name: "a.jpg", Preview: "blob:a"}); err != nil {
		t.Fatalf("start a: %v", err)
	}
	dup, err := store.Dispatch(ctx, editor.DuplicateBlock{ID: galleryID})
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	uploader.succeed("a.jpg", "https://cdn/a.jpg")
	m.Wait()

	original := galleryImages(t, store, galleryID)
	if len(original) != 2 || original[1].URL != "https://cdn/a.jpg" || original[1].IsUploading {
		t.Fatalf("expected original gallery reconciled got %+v", original)
	}
	copied := galleryImages(t, store, dup.BlockID)
	if len(copied) != 1 || copied[0].URL != "https://cdn/done.jpg" || copied[0].IsUploading {
		t.Fatalf("expected copy to hold only the finished image got %+v", copied)
	}
}

func TestDuplicateDuringImageUploadCopiesEmptyImage(t *testing.T) {
	store, imageID := newStoreWith(t, blocks.TypeImage)
	uploader := newManualUploader()
	m, err := uploads.NewManager(store, uploader)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()

	if _, err := m.Start(ctx, imageID, interfaces.UploadFile{Name: "x.jpg", Preview: "blob:local"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	dup, err := store.Dispatch(ctx, editor.DuplicateBlock{ID: imageID})
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	uploader.succeed("x.jpg", "https://cdn/x.jpg")
	m.Wait()

	block, _ := store.Document().Find(imageID)
	if image := block.Data.(*blocks.ImageData); image.URL != "https://cdn/x.jpg" || image.IsUploading {
		t.Fatalf("expected original committed got %+v", image)
	}
	copied, ok := store.Document().Find(dup.BlockID)
	if !ok {
		t.Fatalf("duplicate %s missing", dup.BlockID)
	}
	if image := *copied.Data.(*blocks.ImageData); image != (blocks.ImageData{}) {
		t.Fatalf("expected empty duplicate got %+v", image)
	}
}

type payloadSaver struct {
	mu      sync.Mutex
	payload []byte
}

func (s *payloadSaver) SaveDocument(_ context.Context, _ string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = payload
	return nil
}

func TestSaveDuringUploadOmitsPlaceholder(t *testing.T) {
	store, galleryID := newStoreWith(t, blocks.TypeGallery)
	uploader := newManualUploader()
	m, err := uploads.NewManager(store, uploader)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()

	if _, err := m.Start(ctx, galleryID, interfaces.UploadFile{Name: "a.jpg", Preview: "blob:a"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	saver := &payloadSaver{}
	if err := store.Save(ctx, saver); err != nil {
		t.Fatalf("save: %v", err)
	}

	saved, err := blocks.DecodeDocument(saver.payload)
	if err != nil {
		t.Fatalf("decode saved: %v", err)
	}
	block, _ := saved.Find(galleryID)
	if images := block.Data.(*blocks.GalleryData).Images; len(images) != 0 {
		t.Fatalf("expected placeholder left out of saved payload got %+v", images)
	}
	if len(galleryImages(t, store, galleryID)) != 1 {
		t.Fatalf("expected placeholder to stay in the editor")
	}

	uploader.succeed("a.jpg", "https://cdn/a.jpg")
	m.Wait()
	if !store.Dirty() {
		t.Fatalf("expected commit after save to leave the store dirty")
	}
}
