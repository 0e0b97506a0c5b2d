package backend

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/astra/engine/loader"
)

func startTestDaemon(t *testing.T, root string) *Daemon {
	t.Helper()
	d, err := NewDaemon(root, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}
	d.WithImporter(".png", imageType).WithImporter(".bin", binaryType)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDaemon_ServesIndexedAssets(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "textures", "skull.png"), []byte("png bytes"))

	d := startTestDaemon(t, root)
	client, err := DialDaemon(d.Addr())
	if err != nil {
		t.Fatalf("DialDaemon: %v", err)
	}
	defer client.Close()

	typeID, data, err := client.ReadAsset("textures/skull.png")
	if err != nil {
		t.Fatalf("ReadAsset: %v", err)
	}
	if typeID != imageType {
		t.Errorf("typeID = %s, want %s", typeID, imageType)
	}
	if string(data) != "png bytes" {
		t.Errorf("data = %q, want %q", data, "png bytes")
	}

	// Multiple requests reuse the same connection.
	if _, _, err := client.ReadAsset("textures/skull.png"); err != nil {
		t.Errorf("second ReadAsset: %v", err)
	}
}

func TestDaemon_MissingAndUnregisteredAreNotFound(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "notes.txt"), []byte("unregistered extension"))

	d := startTestDaemon(t, root)
	client, err := DialDaemon(d.Addr())
	if err != nil {
		t.Fatalf("DialDaemon: %v", err)
	}
	defer client.Close()

	if _, _, err := client.ReadAsset("nope.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v, want ErrNotFound", err)
	}
	if _, _, err := client.ReadAsset("notes.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unregistered extension error = %v, want ErrNotFound", err)
	}
}

func TestDaemon_PicksUpFilesCreatedAfterStart(t *testing.T) {
	root := t.TempDir()
	d := startTestDaemon(t, root)
	client, err := DialDaemon(d.Addr())
	if err != nil {
		t.Fatalf("DialDaemon: %v", err)
	}
	defer client.Close()

	if _, _, err := client.ReadAsset("late.bin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("file that does not exist yet: error = %v, want ErrNotFound", err)
	}

	mustWrite(t, filepath.Join(root, "late.bin"), []byte("late bytes"))

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, data, err := client.ReadAsset("late.bin")
		if err == nil {
			if string(data) != "late bytes" {
				t.Fatalf("data = %q, want %q", data, "late bytes")
			}
			return
		}
		var notIndexed *NotIndexedError
		if !errors.As(err, &notIndexed) && !errors.Is(err, ErrNotFound) {
			t.Fatalf("ReadAsset: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("watcher never indexed the new file")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDaemon_LookupReportsUnindexedFileAsTransient(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "pending.bin"), []byte("on disk, not yet scanned"))

	d, err := NewDaemon(root, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}
	d.WithImporter(".bin", binaryType)

	// Before Start the index is empty, so a file present on disk with a known
	// extension is the not-yet-indexed case.
	if _, _, status := d.lookup("pending.bin"); status != statusNotIndexed {
		t.Errorf("lookup status = %q, want %q", status, statusNotIndexed)
	}
	if _, _, status := d.lookup("absent.bin"); status != statusNotFound {
		t.Errorf("lookup status = %q, want %q", status, statusNotFound)
	}

	var transient loader.Transient = &NotIndexedError{Path: "pending.bin"}
	if !transient.Transient() {
		t.Error("NotIndexedError is not transient")
	}
}

func TestDaemon_RemovedFilesLeaveTheIndex(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "gone.bin")
	mustWrite(t, target, []byte("soon gone"))

	d := startTestDaemon(t, root)
	client, err := DialDaemon(d.Addr())
	if err != nil {
		t.Fatalf("DialDaemon: %v", err)
	}
	defer client.Close()

	if _, _, err := client.ReadAsset("gone.bin"); err != nil {
		t.Fatalf("ReadAsset before removal: %v", err)
	}
	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, _, err := client.ReadAsset("gone.bin")
		if errors.Is(err, ErrNotFound) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("removed file still served, last error: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewDaemon_RejectsBadRoot(t *testing.T) {
	if _, err := NewDaemon(filepath.Join(t.TempDir(), "absent"), "127.0.0.1:0"); err == nil {
		t.Error("missing root accepted")
	}

	file := filepath.Join(t.TempDir(), "file")
	mustWrite(t, file, []byte("x"))
	if _, err := NewDaemon(file, "127.0.0.1:0"); err == nil {
		t.Error("plain file accepted as root")
	}
}
