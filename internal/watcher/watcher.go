// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package watcher monitors drop folders for new PDFs and enqueues an
// extraction job for each one.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/voterscan/internal/jobs"
	"github.com/voterscan/internal/queue"
)

const debounceDelay = 500 * time.Millisecond

// Manager watches configured directories and enqueues one extraction
// job per settled PDF. Files found by the watcher are not deleted after
// processing, unlike uploads.
type Manager struct {
	watchPaths []string
	queue      queue.Queue
	registry   *jobs.Registry
	debouncer  *Debouncer

	mu       sync.Mutex
	watchers []*fsnotify.Watcher
	seen     map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a watcher manager over the given paths.
func NewManager(watchPaths []string, q queue.Queue, registry *jobs.Registry) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		watchPaths: watchPaths,
		queue:      q,
		registry:   registry,
		seen:       make(map[string]bool),
		ctx:        ctx,
		cancel:     cancel,
	}
	m.debouncer = NewDebouncer(debounceDelay, m.enqueueFile)
	return m
}

// Start begins watching all configured paths. Missing directories are
// created; existing PDFs in them are enqueued once.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, path := range m.watchPaths {
		if err := m.addWatchPath(path); err != nil {
			log.Printf("Start: failed to watch path %s: %v", path, err)
			continue
		}
	}
	if len(m.watchers) == 0 && len(m.watchPaths) > 0 {
		return fmt.Errorf("no watch paths could be established")
	}
	return nil
}

// Stop stops all watchers and waits for event loops to exit.
func (m *Manager) Stop() {
	m.cancel()
	m.debouncer.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.watchers {
		if err := w.Close(); err != nil {
			log.Printf("Stop: error closing watcher: %v", err)
		}
	}
	m.watchers = nil
	m.wg.Wait()
}

// WatchingPaths returns the configured watch paths.
func (m *Manager) WatchingPaths() []string {
	return append([]string(nil), m.watchPaths...)
}

func (m *Manager) addWatchPath(rootPath string) error {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if err := os.MkdirAll(absPath, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		log.Printf("addWatchPath: created watch directory %s", absPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(absPath); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", absPath, err)
	}

	m.watchers = append(m.watchers, watcher)
	log.Printf("addWatchPath: watching %s", absPath)

	m.wg.Add(1)
	go m.processEvents(absPath, watcher)

	go m.scanExisting(absPath)
	return nil
}

func (m *Manager) processEvents(path string, watcher *fsnotify.Watcher) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isPDF(event.Name) {
				continue
			}
			m.debouncer.Trigger(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("processEvents: watcher error for %s: %v", path, err)
		}
	}
}

// scanExisting enqueues PDFs already sitting in the directory at
// startup, via the debouncer so partially copied files settle first.
func (m *Manager) scanExisting(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("scanExisting: failed to read %s: %v", dir, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := filepath.Join(dir, entry.Name())
		if isPDF(name) {
			m.debouncer.Trigger(name)
		}
	}
}

func (m *Manager) enqueueFile(filePath string) {
	m.mu.Lock()
	if m.seen[filePath] {
		m.mu.Unlock()
		return
	}
	m.seen[filePath] = true
	m.mu.Unlock()

	jobID := uuid.New().String()
	payload := jobs.ExtractPayload{
		JobID:    jobID,
		PDFPaths: []string{filePath},
		Cleanup:  false,
	}
	raw, err := payload.Marshal()
	if err != nil {
		log.Printf("enqueueFile: failed to marshal payload for %s: %v", filePath, err)
		return
	}

	m.registry.Set(jobID, jobs.StatusQueued, fmt.Sprintf("Queued %s from watch folder", filepath.Base(filePath)))
	if err := m.queue.Enqueue(m.ctx, queue.Job{Type: jobs.JobTypeExtract, Payload: raw}); err != nil {
		log.Printf("enqueueFile: failed to enqueue %s: %v", filePath, err)
		m.registry.Set(jobID, jobs.StatusError, fmt.Sprintf("Failed to queue %s: %v", filepath.Base(filePath), err))
		return
	}
	log.Printf("enqueueFile: queued %s as job %s", filePath, jobID)
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
