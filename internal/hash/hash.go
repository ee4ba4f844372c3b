/*
Copyright © 2024 the fishnet authors.
This file is part of fishnet.

fishnet is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fishnet is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fishnet.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package hash fingerprints run inputs so that log records can be
// matched to the exact data and settings they were produced from.
package hash

import (
	"fmt"
	"hash"
	"hash/fnv"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
)

func sum(h hash.Hash) string {
	return fmt.Sprintf("%x", h.Sum(nil)[0:h.Size()])
}

// Hash returns a fingerprint of the specified object, computed from a
// spew dump with sorted map keys so that equal objects always give the
// same result.
func Hash(object interface{}) string {
	h := fnv.New128a()
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	printer.Fprintf(h, "%#v", object)
	return sum(h)
}

// Files returns a fingerprint of the contents of the named files,
// taken in order. Files that do not exist are skipped, so a shapefile
// can be fingerprinted from its .shp, .dbf and optional .prj parts.
func Files(names ...string) (string, error) {
	h := fnv.New128a()
	for _, name := range names {
		f, err := os.Open(name)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return "", fmt.Errorf("hash: %v", err)
		}
		fmt.Fprintf(h, "%s\x00", name)
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("hash: reading %s: %v", name, err)
		}
	}
	return sum(h), nil
}
