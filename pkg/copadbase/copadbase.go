// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package copadbase

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/alexflint/go-filemutex"
)

// set by main-server.go
var CopadVersion = "0.0.0"
var BuildTime = "0"

const (
	DataHomeEnvVar   = "COPAD_DATA_HOME"
	ConfigHomeEnvVar = "COPAD_CONFIG_HOME"
	DevEnvVar        = "COPAD_DEV"
)

const CopadLockFile = "copad.lock"
const DBDir = "db"
const DefaultDataDirName = ".copad"
const ConfigDirName = "config"

var DataHome_VarCache string // caches COPAD_DATA_HOME
var Dev_VarCache string      // caches COPAD_DEV
var ConfigHome_VarCache string

var baseLock = &sync.Mutex{}
var ensureDirCache = map[string]bool{}

// CacheEnvVars reads the copad env vars once at startup.  When unset we fall
// back to defaults under the user's home dir, since the demo server is
// normally launched directly rather than by a wrapper app.
func CacheEnvVars() {
	DataHome_VarCache = os.Getenv(DataHomeEnvVar)
	ConfigHome_VarCache = os.Getenv(ConfigHomeEnvVar)
	Dev_VarCache = os.Getenv(DevEnvVar)
}

func IsDevMode() bool {
	return Dev_VarCache != ""
}

func GetHomeDir() string {
	homeVar, err := os.UserHomeDir()
	if err != nil {
		return "/"
	}
	return homeVar
}

func GetDataDir() string {
	if DataHome_VarCache != "" {
		return DataHome_VarCache
	}
	return filepath.Join(GetHomeDir(), DefaultDataDirName)
}

func GetConfigDir() string {
	if ConfigHome_VarCache != "" {
		return ConfigHome_VarCache
	}
	return filepath.Join(GetDataDir(), ConfigDirName)
}

func GetDBDir() string {
	return filepath.Join(GetDataDir(), DBDir)
}

func EnsureDataDir() error {
	return CacheEnsureDir(GetDataDir(), "copadhome", 0700, "copad data directory")
}

func EnsureDBDir() error {
	return CacheEnsureDir(GetDBDir(), "copaddb", 0700, "copad db directory")
}

func EnsureConfigDir() error {
	return CacheEnsureDir(GetConfigDir(), "copadconfig", 0700, "copad config directory")
}

func CacheEnsureDir(dirName string, cacheKey string, perm os.FileMode, dirDesc string) error {
	baseLock.Lock()
	ok := ensureDirCache[cacheKey]
	baseLock.Unlock()
	if ok {
		return nil
	}
	err := TryMkdirs(dirName, perm, dirDesc)
	if err != nil {
		return err
	}
	baseLock.Lock()
	ensureDirCache[cacheKey] = true
	baseLock.Unlock()
	return nil
}

func TryMkdirs(dirName string, perm os.FileMode, dirDesc string) error {
	info, err := os.Stat(dirName)
	if errors.Is(err, fs.ErrNotExist) {
		err = os.MkdirAll(dirName, perm)
		if err != nil {
			return fmt.Errorf("cannot make %s %q: %w", dirDesc, dirName, err)
		}
		info, err = os.Stat(dirName)
	}
	if err != nil {
		return fmt.Errorf("error trying to stat %s: %w", dirDesc, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %q must be a directory", dirDesc, dirName)
	}
	return nil
}

type FDLock interface {
	Close() error
}

// AcquireCopadLock guards against two server instances sharing one data dir.
func AcquireCopadLock() (FDLock, error) {
	lockFileName := filepath.Join(GetDataDir(), CopadLockFile)
	m, err := filemutex.New(lockFileName)
	if err != nil {
		return nil, fmt.Errorf("filemutex new error: %w", err)
	}
	err = m.TryLock()
	if err != nil {
		return nil, fmt.Errorf("filemutex trylock error: %w", err)
	}
	return m, nil
}
