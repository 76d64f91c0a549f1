// Copyright 2017 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a Modified
// BSD License that can be found in the LICENSE file.

package id3v2

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFakeAudioFile(t *testing.T, tag *Tag, body []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	tag.path = path
	tag.hasPath = true
	if err := tag.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestLoadSaveRoundTrip(t *testing.T) {
	tag := New()
	tag.SetArtist("Artist")
	tag.SetTitle("Title")
	body := []byte("fake mpeg frames here")

	path := writeFakeAudioFile(t, tag, body)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, ok := loaded.Artist(); !ok || got != "Artist" {
		t.Errorf("Artist() = %q, %v", got, ok)
	}
	if got, ok := loaded.Title(); !ok || got != "Title" {
		t.Errorf("Title() = %q, %v", got, ok)
	}
	if loaded.Version != Version4 {
		t.Errorf("Version = %v, want v2.4", loaded.Version)
	}

	tail := skipMetadata(path)
	if string(tail) != string(body) {
		t.Errorf("skipMetadata = %q, want %q", tail, body)
	}
}

func TestSaveInPlaceLeavesAudioBodyIntact(t *testing.T) {
	tag := New()
	tag.SetArtist("Artist")
	body := []byte("audio-body-marker-0123456789")
	path := writeFakeAudioFile(t, tag, body)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	loaded.SetArtist("Changed Artist")
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got, ok := again.Artist(); !ok || got != "Changed Artist" {
		t.Errorf("Artist() = %q, %v", got, ok)
	}

	tail := skipMetadata(path)
	if string(tail) != string(body) {
		t.Errorf("audio body corrupted: got %q, want %q", tail, body)
	}
}

func TestV22LoadTriggersRewriteOnSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v22.mp3")

	// Hand-build a minimal v2.2 tag: magic, version 2.2, flags 0, a
	// synchsafe size, one TT2 frame, then audio body.
	frame := []byte{'T', 'T', '2', 0, 0, 6, 0x00}
	frame = append(frame, []byte("Title")...)
	size := uint32(len(frame))
	var sizeBuf [4]byte
	encodeSynchsafeBytes(sizeBuf[:], size)

	data := []byte{'I', 'D', '3', 0x02, 0x00, 0x00}
	data = append(data, sizeBuf[:]...)
	data = append(data, frame...)
	data = append(data, []byte("audiobody")...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	tag, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tag.Version != Version4 {
		t.Errorf("Version = %v, want v2.4 after upgrade", tag.Version)
	}
	if !tag.rewrite {
		t.Error("rewrite flag not set after loading a v2.2 tag")
	}
	if got, ok := tag.Title(); !ok || got != "Title" {
		t.Errorf("Title() = %q, %v", got, ok)
	}

	if err := tag.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Version != Version4 {
		t.Errorf("Version after save = %v, want v2.4", reloaded.Version)
	}
	tail := skipMetadata(path)
	if string(tail) != "audiobody" {
		t.Errorf("audio body after rewrite = %q, want audiobody", tail)
	}
}

func TestIsCandidateAndSkipMetadataOnNonID3(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.mp3")
	body := []byte("no tag here at all")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	if IsCandidate(path) {
		t.Error("IsCandidate = true for a file with no ID3 magic")
	}
	if got := skipMetadata(path); string(got) != string(body) {
		t.Errorf("skipMetadata = %q, want %q", got, body)
	}
}

func TestIsCandidateMissingFile(t *testing.T) {
	if IsCandidate("/nonexistent/path/does/not/exist.mp3") {
		t.Error("IsCandidate = true for a missing file")
	}
}

func TestSaveWithoutPathPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic calling Save on a path-less tag")
		}
	}()
	New().Save()
}

func TestSaveAsDifferentPathDiscardsFileAlterFrames(t *testing.T) {
	tag := New()
	tag.SetArtist("Artist")
	tag.AddFrame(&Frame{
		ID:      "TLEN",
		Payload: Text{Text: "12345"},
		Flags:   FrameFlags{FileAlterPreservation: true},
	})
	body := []byte("body")
	srcPath := writeFakeAudioFile(t, tag, body)

	loaded, err := Load(srcPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.FramesByID("TLEN"); len(got) != 1 {
		t.Fatalf("expected TLEN frame to survive the first save, got %d", len(got))
	}

	dstPath := filepath.Join(t.TempDir(), "copy.mp3")
	if err := loaded.SaveAs(dstPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	copied, err := Load(dstPath)
	if err != nil {
		t.Fatalf("Load copy: %v", err)
	}
	if got := copied.FramesByID("TLEN"); len(got) != 0 {
		t.Errorf("TLEN frame survived a file-changed save, want discarded")
	}
	if artist, ok := copied.Artist(); !ok || artist != "Artist" {
		t.Errorf("Artist() = %q, %v, want Artist, true", artist, ok)
	}
}
