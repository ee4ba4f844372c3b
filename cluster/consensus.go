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

package cluster

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// DefaultIterations is the default number of runs in a consensus.
const DefaultIterations = 100

// Consensus runs s on x with seeds 0 through iterations-1 and combines
// the runs by majority vote. Each run votes for the label it gave each
// entity; the final label of an entity is the label with the most
// votes, with ties going to the lowest label. Noise labels do not
// vote, and an entity with no votes is labeled Noise.
//
// Runs are executed concurrently, but the result depends only on the
// inputs. Labels are not matched between runs, so if two runs give
// the same group different label numbers their votes are split.
//
// votes has one row per entity and one column per label.
func Consensus(ctx context.Context, x *mat.Dense, k, iterations int, s Strategy) (labels []int, votes *mat.Dense, err error) {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	n, _ := x.Dims()
	if err := checkK(n, k); err != nil {
		return nil, nil, err
	}

	runs := make([][]int, iterations)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < iterations; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := s.Fit(x, k, uint64(i))
			if err != nil {
				return fmt.Errorf("cluster: %s run %d: %w", s.Name(), i, err)
			}
			runs[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	labels, votes = vote(runs, n, k)
	return labels, votes, nil
}

// vote tallies the runs and returns the winning label for each entity
// along with the vote counts.
func vote(runs [][]int, n, k int) ([]int, *mat.Dense) {
	width := k
	for _, r := range runs {
		for _, l := range r {
			if l+1 > width {
				width = l + 1
			}
		}
	}
	votes := mat.NewDense(n, width, nil)
	for _, r := range runs {
		for i, l := range r {
			if l == Noise {
				continue
			}
			votes.Set(i, l, votes.At(i, l)+1)
		}
	}
	labels := make([]int, n)
	for i := range labels {
		best, bestVotes := Noise, 0.
		for l, v := range votes.RawRowView(i) {
			if v > bestVotes {
				best, bestVotes = l, v
			}
		}
		labels[i] = best
	}
	return labels, votes
}
