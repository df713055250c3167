// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cstore

// setup for the session store db
// includes migration support and txwrap setup

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/wavetermdev/copad/pkg/copadbase"
	"github.com/wavetermdev/copad/pkg/util/migrateutil"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sawka/txwrap"

	dbfs "github.com/wavetermdev/copad/db"
)

const SessionStoreDBName = "sessionstore.db"

type TxWrap = txwrap.TxWrap

var globalDB *sqlx.DB
var useTestingDb bool // just for testing (forces MakeDB() to return an in-memory db)

func InitSessionStore() error {
	ctx, cancelFn := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelFn()
	var err error
	globalDB, err = MakeDB(ctx)
	if err != nil {
		return err
	}
	err = migrateutil.Migrate("sessionstore", globalDB.DB, dbfs.SessionStoreMigrationFS, "migrations-sessionstore")
	if err != nil {
		return err
	}
	log.Printf("sessionstore initialized\n")
	return nil
}

func GetDBName() string {
	return filepath.Join(copadbase.GetDBDir(), SessionStoreDBName)
}

func MakeDB(ctx context.Context) (*sqlx.DB, error) {
	var rtn *sqlx.DB
	var err error
	if useTestingDb {
		dbName := ":memory:"
		log.Printf("[db] using in-memory db\n")
		rtn, err = sqlx.Open("sqlite3", dbName)
	} else {
		dbName := GetDBName()
		log.Printf("[db] opening db %s\n", dbName)
		rtn, err = sqlx.Open("sqlite3", fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", dbName))
	}
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	rtn.DB.SetMaxOpenConns(1)
	return rtn, nil
}

func CloseSessionStore() {
	if globalDB != nil {
		globalDB.Close()
		globalDB = nil
	}
}

func WithTx(ctx context.Context, fn func(tx *TxWrap) error) error {
	return txwrap.WithTx(ctx, globalDB, fn)
}

func WithTxRtn[RT any](ctx context.Context, fn func(tx *TxWrap) (RT, error)) (RT, error) {
	return txwrap.WithTxRtn(ctx, globalDB, fn)
}
