// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package driver

import "errors"

// ErrExhausted is returned by Cursor.Next when it is called after the last document was produced.
var ErrExhausted = errors.New("cursor exhausted: no more documents")
