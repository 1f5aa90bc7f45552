// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Functions analogous to libibumad.
// Note: When running in an ibsim environment, the libumad2sim.so LD_PRELOAD hijacks libc syscall
// wrappers such as scandir(3), which libibumad uses to enumerate HCAs found in sysfs. Other libc
// functions like ioctl(2) and basic file IO functions (e.g., open(2), read(2) etc.) are also
// hijacked to intercept operations on /dev/infiniband/* and /sys/class/infiniband/* entries.
//
// Go's os.ReadDir() function results in a function call chain of:
//   os.Open -> os.OpenFile -> syscall.Open -> syscall.openat -> syscall.Syscall6(SYS_OPENAT, ...)
// The openat() call is not intercepted by the libumad2sim.so LD_PRELOAD, so the umad package
// falls back to umad_get_cas_names() when sysfs yields nothing.

package infiniband

import (
	"os"
	"sort"
)

const (
	SYS_INFINIBAND = "/sys/class/infiniband"
)

// GetCANames is the functional equivalent of umad_get_cas_names(). CA names are returned in
// lexical order.
func GetCANames() ([]string, error) {
	return readCANames(SYS_INFINIBAND)
}

func readCANames(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	caNames := []string{}
	for _, file := range files {
		caNames = append(caNames, file.Name())
	}

	sort.Strings(caNames)

	return caNames, nil
}
