// Copyright 2025 venslabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session holds the per-invocation state of a run: its start time,
// the file name stamp derived from it, and the directories it writes to.
package session

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// StampLayout formats the start time in generated file names.
const StampLayout = "20060102_150405"

const (
	rawDirPrefix = "fosslight_raw_data_"
	logDir       = "fosslight_log"
)

type Session struct {
	Start     time.Time
	OutputDir string
	KeepRaw   bool
}

// New starts a session writing to outputDir, the working directory when
// empty. The directory is made absolute so external tools running elsewhere
// resolve the same paths.
func New(outputDir string, keepRaw bool) *Session {
	if outputDir == "" {
		outputDir = "."
	}
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	return &Session{
		Start:     time.Now(),
		OutputDir: outputDir,
		KeepRaw:   keepRaw,
	}
}

func (s *Session) Stamp() string {
	return s.Start.Format(StampLayout)
}

// RawDir is where scanners leave their intermediate output.
func (s *Session) RawDir() string {
	return filepath.Join(s.OutputDir, rawDirPrefix+s.Stamp())
}

// LogPath is the log file of the run.
func (s *Session) LogPath() string {
	return filepath.Join(s.OutputDir, logDir, "fosslight_log_"+s.Stamp()+".txt")
}

// OpenLog creates the log file of the run.
func (s *Session) OpenLog() (*os.File, error) {
	p := s.LogPath()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	return os.Create(p)
}

// Path joins name to the output directory.
func (s *Session) Path(name string) string {
	return filepath.Join(s.OutputDir, name)
}

// Prepare creates the output and raw directories.
func (s *Session) Prepare() error {
	return os.MkdirAll(s.RawDir(), 0o755)
}

// Cleanup removes the raw directory unless raw data is kept.
func (s *Session) Cleanup() {
	if s.KeepRaw {
		slog.Info("Raw data kept", "dir", s.RawDir())
		return
	}
	slog.Debug("Remove temporary files", "dir", s.RawDir())
	if err := os.RemoveAll(s.RawDir()); err != nil {
		slog.Debug("Failed to remove temporary files", "dir", s.RawDir(), "error", err)
	}
}
