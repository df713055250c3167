// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package db

import "embed"

//go:embed migrations-sessionstore/*.sql
var SessionStoreMigrationFS embed.FS
