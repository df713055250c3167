// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cconfig

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/wavetermdev/copad/pkg/copadbase"
	"github.com/wavetermdev/copad/pkg/eventbus"
)

var instance *Watcher
var once sync.Once

type Watcher struct {
	initialized bool
	watcher     *fsnotify.Watcher
	mutex       sync.Mutex
	fullConfig  FullConfigType
}

type WatcherUpdate struct {
	FullConfig FullConfigType `json:"fullconfig"`
}

// GetWatcher returns the singleton instance of the Watcher
func GetWatcher() *Watcher {
	once.Do(func() {
		configDirAbsPath := copadbase.GetConfigDir()
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Printf("failed to create file watcher: %v\n", err)
			return
		}
		instance = &Watcher{watcher: watcher}
		err = instance.watcher.Add(configDirAbsPath)
		if err != nil {
			log.Printf("failed to add path %s to watcher: %v\n", configDirAbsPath, err)
		}
	})
	return instance
}

func (w *Watcher) Start() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	log.Printf("starting config file watcher\n")
	w.initialized = true
	w.fullConfig = ReadFullConfig()
	w.broadcast(WatcherUpdate{FullConfig: w.fullConfig})

	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Println("watcher error:", err)
			}
		}
	}()
}

func (w *Watcher) Close() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
		log.Println("config file watcher closed")
	}
}

func (w *Watcher) broadcast(message WatcherUpdate) {
	// send to frontend
	eventbus.SendEvent(eventbus.WSEventType{
		EventType: eventbus.WSEvent_Config,
		Data:      message,
	})
}

func (w *Watcher) GetFullConfig() FullConfigType {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.initialized {
		return FullConfigType{Settings: getSettingsDefaults()}
	}
	return w.fullConfig
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if event.Op == fsnotify.Chmod {
		return
	}
	if filepath.Base(filepath.ToSlash(event.Name)) != SettingsFile {
		return
	}
	w.fullConfig = ReadFullConfig()
	w.broadcast(WatcherUpdate{FullConfig: w.fullConfig})
}
