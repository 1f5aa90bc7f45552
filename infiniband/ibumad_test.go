// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package infiniband

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadCANames(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"mlx5_1", "mlx5_0", "qib0"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	names, err := readCANames(dir)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(names, []string{"mlx5_0", "mlx5_1", "qib0"}) {
		t.Fatalf("unexpected CA names: %v", names)
	}

	if _, err := readCANames(filepath.Join(dir, "nonexistent")); err == nil {
		t.Fatal("expected error for missing sysfs directory")
	}
}
