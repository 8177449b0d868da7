// Package materialize writes the phase scripts of a successful dry run to disk
// together with a manifest of their blake3 digests.
package materialize

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/stagehand/internal/errors"
	"github.com/felixgeelhaar/stagehand/internal/log"
	"github.com/felixgeelhaar/stagehand/pkg/stagehand/pipeline"
)

const (
	// PhasesDir is the directory, relative to the output directory, that holds
	// the phase scripts.
	PhasesDir = "phases"
	// ManifestFile is the manifest name inside the output directory.
	ManifestFile = "manifest.json"

	scriptMode   = 0o755
	manifestMode = 0o644
	dirMode      = 0o750
)

// Script kinds recorded in the manifest.
const (
	KindPre  = "pre"
	KindMain = "main"
)

// Manifest lists the files written for one dry run.
type Manifest struct {
	PipelineID string      `json:"pipeline_id"`
	BuildID    string      `json:"build_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	Files      []FileEntry `json:"files"`
}

// FileEntry is one written script.
type FileEntry struct {
	PhaseID string `json:"phase_id"`
	Kind    string `json:"kind"`
	// Path is relative to the output directory.
	Path   string `json:"path"`
	Digest string `json:"digest"`
	Size   int    `json:"size"`
}

// Materializer writes reports into Dir.
type Materializer struct {
	Dir    string
	Logger *log.Logger

	now func() time.Time
}

// New returns a Materializer writing into dir.
func New(dir string, logger *log.Logger) *Materializer {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Materializer{Dir: dir, Logger: logger, now: time.Now}
}

// Write writes <id>_pre.sh (when the phase has a preparation script) and
// <id>.sh for every materialized phase, then manifest.json. Scripts left in
// the phases directory by an earlier run are removed first. A failed report is
// refused.
func (m *Materializer) Write(rep *pipeline.Report) (*Manifest, error) {
	if rep == nil || !rep.Success {
		return nil, errors.New(errors.ErrCodeFileWriteFailed, "refusing to materialize a failed dry run").
			WithSuggestion("Fix the reported error and run the dry run again")
	}

	phasesDir := filepath.Join(m.Dir, PhasesDir)
	if err := os.MkdirAll(phasesDir, dirMode); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWriteFailed, "create phases directory", err)
	}
	if err := m.removeStaleScripts(phasesDir); err != nil {
		return nil, err
	}

	manifest := &Manifest{
		PipelineID: rep.Pipeline.ID,
		BuildID:    rep.BuildID,
		CreatedAt:  m.now().UTC(),
		Files:      []FileEntry{},
	}

	for _, stage := range rep.Pipeline.Stages {
		for _, phase := range stage {
			if !phase.Materialized {
				continue
			}
			if phase.PreScript != nil {
				entry, err := m.writeScript(phase.ID, KindPre, phase.PreScriptFile, *phase.PreScript)
				if err != nil {
					return nil, err
				}
				manifest.Files = append(manifest.Files, entry)
			}
			entry, err := m.writeScript(phase.ID, KindMain, phase.MainScriptFile, phase.MainScript)
			if err != nil {
				return nil, err
			}
			manifest.Files = append(manifest.Files, entry)
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWriteFailed, "marshal manifest", err)
	}
	if err := os.WriteFile(filepath.Join(m.Dir, ManifestFile), data, manifestMode); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWriteFailed, "write manifest", err)
	}

	m.Logger.Info("scripts materialized", "dir", m.Dir, "files", len(manifest.Files), "build_id", rep.BuildID)
	return manifest, nil
}

func (m *Materializer) removeStaleScripts(phasesDir string) error {
	stale, err := filepath.Glob(filepath.Join(phasesDir, "*.sh"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "list phases directory", err)
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			return errors.Wrap(errors.ErrCodeFileWriteFailed, "remove stale script", err)
		}
		m.Logger.Debug("stale script removed", "path", filepath.ToSlash(filepath.Join(PhasesDir, filepath.Base(p))))
	}
	return nil
}

func (m *Materializer) writeScript(phaseID, kind, name, content string) (FileEntry, error) {
	rel := filepath.ToSlash(filepath.Join(PhasesDir, name))
	path := filepath.Join(m.Dir, PhasesDir, name)

	if err := os.WriteFile(path, []byte(content), scriptMode); err != nil {
		return FileEntry{}, errors.Wrap(errors.ErrCodeFileWriteFailed, "write "+rel, err)
	}
	// WriteFile only applies the mode to new files.
	if err := os.Chmod(path, scriptMode); err != nil {
		return FileEntry{}, errors.Wrap(errors.ErrCodeFileWriteFailed, "chmod "+rel, err)
	}

	m.Logger.Debug("script written", "phase_id", phaseID, "kind", kind, "path", rel)
	return FileEntry{
		PhaseID: phaseID,
		Kind:    kind,
		Path:    rel,
		Digest:  Digest([]byte(content)),
		Size:    len(content),
	}, nil
}

// Digest returns "blake3:<hex>" for data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return fmt.Sprintf("blake3:%x", sum[:])
}

// LoadManifest reads manifest.json from dir.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWriteFailed, "read manifest", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWriteFailed, "unmarshal manifest", err)
	}
	return &manifest, nil
}

// Verify recomputes the digest of every file listed in the manifest in dir and
// returns the paths that are missing or changed, followed by scripts in the
// phases directory the manifest does not list. A manifest entry outside the
// phases directory fails with IO-002.
func Verify(dir string) ([]string, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	listed := make(map[string]bool, len(manifest.Files))
	var changed []string
	for _, f := range manifest.Files {
		if !inPhasesDir(f.Path) {
			return nil, errors.Newf(errors.ErrCodeManifestMismatch, "manifest lists %q outside %s/", f.Path, PhasesDir).
				WithSuggestion("Run stagehand dryrun again with --out to regenerate the manifest")
		}
		listed[f.Path] = true

		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.Path)))
		if err != nil || Digest(data) != f.Digest {
			changed = append(changed, f.Path)
		}
	}

	scripts, err := filepath.Glob(filepath.Join(dir, PhasesDir, "*.sh"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileWriteFailed, "list phases directory", err)
	}
	for _, p := range scripts {
		rel := path.Join(PhasesDir, filepath.Base(p))
		if !listed[rel] {
			changed = append(changed, rel)
		}
	}
	return changed, nil
}

// inPhasesDir reports whether the slash-separated rel names a file directly
// inside PhasesDir.
func inPhasesDir(rel string) bool {
	if rel == "" || path.IsAbs(rel) || rel != path.Clean(rel) {
		return false
	}
	return path.Dir(rel) == PhasesDir
}
