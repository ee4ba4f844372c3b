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

// Command fishnet is a command-line interface for fishnet grid
// filtering, consensus clustering, and label imputation.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/fishnet/fishnetutil"
)

func main() {
	if err := fishnetutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
