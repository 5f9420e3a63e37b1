// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package assetindex

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/wvoid-fm/broadcast/internal/logging"
	"github.com/wvoid-fm/broadcast/internal/model"
)

// recognizedExtensions are the audio file extensions the index scans for.
var recognizedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".opus": true,
	".aac":  true,
}

// Directories describes the asset roots the Index scans. MusicDirs are
// recursive; ArchiveMusicDir (if set) is searched last and recursively.
// SegmentsDir has period sub-folders (late_night/morning/afternoon/evening)
// plus a shows/<show_id> tree and is itself scanned as the flat fallback.
// PodcastsDir is a single flat directory.
type Directories struct {
	MusicDirs       []string
	ArchiveMusicDir string
	SegmentsDir     string
	PodcastsDir     string
}

// Index holds the lazily (re-)scanned asset catalog. A scan is a full
// re-enumeration; the index does not watch the filesystem, matching the
// "lazy re-scan on demand" policy in spec.md §9.
type Index struct {
	classifier *Classifier
	dirs       Directories
}

// NewIndex builds an Index over the given directories.
func NewIndex(dirs Directories, classifier *Classifier) *Index {
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Index{classifier: classifier, dirs: dirs}
}

// ScanMusic recursively enumerates every recognized audio file under the
// configured music directories, archive directory last.
func (idx *Index) ScanMusic() []model.Asset {
	var assets []model.Asset
	roots := append(append([]string{}, idx.dirs.MusicDirs...), idx.dirs.ArchiveMusicDir)
	for _, root := range roots {
		if root == "" {
			continue
		}
		assets = append(assets, idx.walk(root, model.KindMusic)...)
	}
	return assets
}

// ScanPodcasts enumerates the podcasts directory. The directory is
// expected to be flat, but walk recurses, so files in sub-folders are
// included too.
func (idx *Index) ScanPodcasts() []model.Asset {
	if idx.dirs.PodcastsDir == "" {
		return nil
	}
	return idx.walk(idx.dirs.PodcastsDir, model.KindPodcast)
}

// ScanSegments enumerates every segment file under the segments root,
// including period sub-folders and shows/<show_id> overrides.
func (idx *Index) ScanSegments() []model.Asset {
	if idx.dirs.SegmentsDir == "" {
		return nil
	}
	return idx.walk(idx.dirs.SegmentsDir, model.KindSegment)
}

// ScanSegmentsInPeriod enumerates segment files inside a single period
// sub-folder only (e.g. "morning"), used by the Director to prefer the
// period-specific pool before falling back to the flat root.
func (idx *Index) ScanSegmentsInPeriod(period model.Period) []model.Asset {
	if idx.dirs.SegmentsDir == "" {
		return nil
	}
	dir := filepath.Join(idx.dirs.SegmentsDir, string(period))
	if _, err := os.Stat(dir); err != nil {
		return nil
	}
	return idx.walk(dir, model.KindSegment)
}

func (idx *Index) walk(root string, kind model.AssetKind) []model.Asset {
	var assets []model.Asset
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.WithComponent("assetindex").Warn().Err(err).Str("path", path).Msg("scan error")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !recognizedExtensions[ext] {
			return nil
		}
		assets = append(assets, idx.classify(path, kind))
		return nil
	})
	if err != nil {
		logging.WithComponent("assetindex").Warn().Err(err).Str("root", root).Msg("walk failed")
	}
	return assets
}

func (idx *Index) classify(path string, kind model.AssetKind) model.Asset {
	asset := model.Asset{
		Path: path,
		Kind: kind,
		Mood: idx.classifier.ClassifyMood(path),
	}

	if info, err := os.Stat(path); err == nil {
		asset.ModTime = info.ModTime()
	}

	if kind == model.KindSegment {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		segType, singleUse := idx.classifier.ClassifySegmentType(stem)
		asset.SegmentType = segType
		asset.SingleUse = singleUse
	}

	if kind == model.KindMusic || kind == model.KindPodcast {
		title, artist := readTags(path)
		asset.TrackName = title
		asset.Artist = artist
		if asset.TrackName == "" {
			asset.TrackName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
	}

	return asset
}

// readTags extracts title/artist via ID3 (or equivalent container) tags,
// falling back to empty strings on any read failure — the caller derives
// a filename-based title when this yields nothing.
func readTags(path string) (title, artist string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", ""
	}
	return m.Title(), m.Artist()
}
