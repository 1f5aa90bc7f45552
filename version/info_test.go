// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	Version, Branch, Revision = "1.2.3", "main", "abc123"
	defer func() { Version, Branch, Revision = "dev", "", "" }()

	s := Print("saquery")
	require.True(t, strings.HasPrefix(s, "saquery (version=1.2.3, branch=main, revision=abc123)"))
	require.Contains(t, s, "build: (go=")
	require.Equal(t, "saquery/1.2.3", UserAgent())
}
