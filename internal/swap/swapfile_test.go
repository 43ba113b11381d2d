package swap

import (
	"bytes"
	"path/filepath"
	"testing"

	"sv39vm/internal/mem"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(filepath.Join(dir, "swap0"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	buf := bytes.Repeat([]byte{0xAB}, mem.PageSize)
	if err := f.Write(buf, 3*mem.PageSize); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := make([]byte, mem.PageSize)
	if err := f.Read(got, 3*mem.PageSize); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatal("read back data does not match what was written")
	}
}

func TestOpenLocksAgainstSecondOwner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swap0")

	f1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer f1.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("second Open on the same swap file should fail to lock")
	}
}

func TestCopyFromDuplicatesContents(t *testing.T) {
	dir := t.TempDir()
	parent, err := Open(filepath.Join(dir, "parent"))
	if err != nil {
		t.Fatalf("Open parent: %v", err)
	}
	defer parent.Close()

	child, err := Open(filepath.Join(dir, "child"))
	if err != nil {
		t.Fatalf("Open child: %v", err)
	}
	defer child.Close()

	page0 := bytes.Repeat([]byte{0x11}, mem.PageSize)
	page1 := bytes.Repeat([]byte{0x22}, mem.PageSize)
	if err := parent.Write(page0, 0); err != nil {
		t.Fatalf("Write page0: %v", err)
	}
	if err := parent.Write(page1, mem.PageSize); err != nil {
		t.Fatalf("Write page1: %v", err)
	}

	if err := child.CopyFrom(parent); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}

	got0 := make([]byte, mem.PageSize)
	got1 := make([]byte, mem.PageSize)
	if err := child.Read(got0, 0); err != nil {
		t.Fatalf("Read child page0: %v", err)
	}
	if err := child.Read(got1, mem.PageSize); err != nil {
		t.Fatalf("Read child page1: %v", err)
	}
	if !bytes.Equal(got0, page0) || !bytes.Equal(got1, page1) {
		t.Fatal("child swap file does not match parent's contents byte-for-byte")
	}
}
