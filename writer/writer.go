// Copyright 2017-20 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package writer defines the ResultWriter interface type, which all saquery writers must
// implement in order to receive query results. What each writer does with a result set is
// dependent on the individual writer.
package writer

import (
	"github.com/dswarbrick/saquery/query"
)

// ResultWriter defines the interface type that all saquery writers must implement.
type ResultWriter interface {
	Receiver(chan query.ResultSet)
}
