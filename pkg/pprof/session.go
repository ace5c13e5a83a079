package pprof

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sync"
)

// Session records the configured profiles between Start and Stop.
type Session struct {
	cfg     *Config
	cpuFile *os.File

	mu      sync.Mutex
	stopped bool
}

// Start begins a session. A nil or disabled config yields a session whose
// Stop does nothing.
func Start(cfg *Config) (*Session, error) {
	if cfg == nil || !cfg.Enabled {
		return &Session{stopped: true}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pprof directory: %w", err)
	}

	s := &Session{cfg: cfg}
	if cfg.HasProfile(ProfileBlock) {
		runtime.SetBlockProfileRate(1)
	}
	if cfg.HasProfile(ProfileMutex) {
		runtime.SetMutexProfileFraction(1)
	}
	if cfg.HasProfile(ProfileCPU) {
		f, err := os.Create(s.path(ProfileCPU))
		if err != nil {
			return nil, fmt.Errorf("failed to create cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	return s, nil
}

// Stop ends the CPU profile, writes every other requested profile and
// returns the files written. Calling Stop again is a no-op.
func (s *Session) Stop() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, nil
	}
	s.stopped = true

	var (
		files []string
		errs  []error
	)
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := s.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cpu: %w", err))
		} else {
			files = append(files, s.cpuFile.Name())
		}
	}

	for _, pt := range s.cfg.Profiles {
		if pt == ProfileCPU {
			continue
		}
		path, err := s.writeSnapshot(pt)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pt, err))
			continue
		}
		files = append(files, path)
	}

	runtime.SetBlockProfileRate(0)
	runtime.SetMutexProfileFraction(0)

	if len(errs) > 0 {
		return files, fmt.Errorf("failed to write profiles: %v", errs)
	}
	return files, nil
}

func (s *Session) writeSnapshot(pt ProfileType) (string, error) {
	p := pprof.Lookup(string(pt))
	if p == nil {
		return "", fmt.Errorf("profile not available")
	}
	if pt == ProfileHeap || pt == ProfileAllocs {
		runtime.GC()
	}

	path := s.path(pt)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := p.WriteTo(f, 0); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func (s *Session) path(pt ProfileType) string {
	return filepath.Join(s.cfg.OutputDir, string(pt)+".pprof")
}
