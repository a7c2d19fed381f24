// Package assets loads meme images and sounds from disk and picks which one
// to show for an emotion.
//
// Layout:
//
//	<images>/<emotion>/*.{jpg,jpeg,png,gif}
//	<sounds>/<emotion>.{mp3,wav,ogg}
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teslashibe/go-memey/internal/log"
	"github.com/teslashibe/go-memey/pkg/emotion"
)

// ErrEmptyFolder is returned when an emotion has no images.
var ErrEmptyFolder = errors.New("assets: no images for emotion")

// Supported file extensions, lower case.
var (
	ImageExts = []string{".jpg", ".jpeg", ".png", ".gif"}
	SoundExts = []string{".mp3", ".wav", ".ogg"}
)

// Entry holds the assets of one emotion.
type Entry struct {
	Emotion emotion.Emotion
	Images  []string // sorted
	Sound   string   // empty when the emotion has no sound
}

// Library is the read-only set of entries, one per emotion.
type Library struct {
	entries map[emotion.Emotion]Entry
}

// Load scans the images and sounds directories. Missing directories are
// created and yield an empty library.
func Load(imagesDir, soundsDir string) (*Library, error) {
	lib := &Library{entries: make(map[emotion.Emotion]Entry)}
	for _, e := range emotion.All() {
		lib.entries[e] = Entry{Emotion: e}
	}

	if err := ensureDir(imagesDir); err != nil {
		return nil, err
	}
	if err := ensureDir(soundsDir); err != nil {
		return nil, err
	}

	if err := lib.loadImages(imagesDir); err != nil {
		return nil, err
	}
	if err := lib.loadSounds(soundsDir); err != nil {
		return nil, err
	}

	for _, e := range emotion.All() {
		if len(lib.entries[e].Images) == 0 {
			log.Warn("no memes found", "emotion", e, "dir", filepath.Join(imagesDir, string(e)))
		}
	}
	log.Info("meme library loaded", "images", lib.ImageCount(), "sounds", lib.SoundCount())

	return lib, nil
}

// NewLibrary builds a library from entries, mostly for tests.
func NewLibrary(entries ...Entry) *Library {
	lib := &Library{entries: make(map[emotion.Emotion]Entry)}
	for _, e := range emotion.All() {
		lib.entries[e] = Entry{Emotion: e}
	}
	for _, en := range entries {
		lib.entries[en.Emotion] = en
	}
	return lib
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		log.Warn("creating asset directory", "dir", dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (l *Library) loadImages(root string) error {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read images dir: %w", err)
	}

	for _, d := range dirs {
		if !isDir(root, d) {
			continue
		}
		e, err := emotion.Parse(d.Name())
		if err != nil {
			log.Warn("ignoring meme folder", "folder", d.Name())
			continue
		}

		files, err := os.ReadDir(filepath.Join(root, d.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", d.Name(), err)
		}

		entry := l.entries[e]
		for _, f := range files {
			if f.IsDir() || !hasExt(f.Name(), ImageExts) {
				continue
			}
			entry.Images = append(entry.Images, filepath.Join(root, d.Name(), f.Name()))
		}
		sort.Strings(entry.Images)
		l.entries[e] = entry
	}
	return nil
}

func (l *Library) loadSounds(root string) error {
	files, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read sounds dir: %w", err)
	}

	// stem -> path, sorted for a stable partial match
	stems := make(map[string]string)
	var names []string
	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), SoundExts) {
			continue
		}
		stem := strings.ToLower(strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())))
		if _, dup := stems[stem]; dup {
			continue
		}
		stems[stem] = filepath.Join(root, f.Name())
		names = append(names, stem)
	}
	sort.Strings(names)

	for _, e := range emotion.All() {
		entry := l.entries[e]
		entry.Sound = matchSound(string(e), stems, names)
		l.entries[e] = entry
	}
	return nil
}

// matchSound prefers an exact stem, then any stem containing the emotion
// name or contained in it.
func matchSound(name string, stems map[string]string, sorted []string) string {
	if p, ok := stems[name]; ok {
		return p
	}
	for _, stem := range sorted {
		if strings.Contains(stem, name) || strings.Contains(name, stem) {
			return stems[stem]
		}
	}
	return ""
}

// isDir reports whether d is a directory, following symlinks.
func isDir(root string, d os.DirEntry) bool {
	if d.Type()&os.ModeSymlink == 0 {
		return d.IsDir()
	}
	info, err := os.Stat(filepath.Join(root, d.Name()))
	return err == nil && info.IsDir()
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Entry returns the assets for e.
func (l *Library) Entry(e emotion.Emotion) Entry {
	return l.entries[e]
}

// Sound returns the sound path for e, or "".
func (l *Library) Sound(e emotion.Emotion) string {
	return l.entries[e].Sound
}

// Available lists the emotions that have at least one image, in fixed order.
func (l *Library) Available() []emotion.Emotion {
	var out []emotion.Emotion
	for _, e := range emotion.All() {
		if len(l.entries[e].Images) > 0 {
			out = append(out, e)
		}
	}
	return out
}

// ImageCount returns the total number of images.
func (l *Library) ImageCount() int {
	n := 0
	for _, en := range l.entries {
		n += len(en.Images)
	}
	return n
}

// SoundCount returns the number of emotions with a sound.
func (l *Library) SoundCount() int {
	n := 0
	for _, en := range l.entries {
		if en.Sound != "" {
			n++
		}
	}
	return n
}
