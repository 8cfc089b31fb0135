package perception

import (
	"math"
)

// Constants for clustering configuration
const (
	// DefaultDBSCANEps is the neighbourhood radius in standardized units
	DefaultDBSCANEps = 0.15
	// DefaultDBSCANMinPts is the neighbour count, including the point
	// itself, that makes a point a core point
	DefaultDBSCANMinPts = 3
	// EstimatedPointsPerCell is used for initial spatial index capacity estimation
	EstimatedPointsPerCell = 4
)

// Noise is the label given to points that belong to no cluster.
const Noise = -1

// SpatialIndex provides efficient nearest neighbor queries using a regular grid.
// Cell size should match the DBSCAN eps parameter so that every neighbour
// of a point lies in the 3x3 block of cells around it.
type SpatialIndex struct {
	CellSize float64
	Grid     map[int64][]int // Cell ID → point indices, ascending
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[int64][]int),
	}
}

// Build populates the spatial index from a set of points.
func (si *SpatialIndex) Build(points []Point2) {
	si.Grid = make(map[int64][]int, len(points)/EstimatedPointsPerCell+1)

	for i, p := range points {
		cellX, cellY := si.cellCoords(p.X, p.Y)
		cellID := pairCells(cellX, cellY)
		si.Grid[cellID] = append(si.Grid[cellID], i)
	}
}

func (si *SpatialIndex) cellCoords(x, y float64) (int64, int64) {
	return int64(math.Floor(x / si.CellSize)), int64(math.Floor(y / si.CellSize))
}

// pairCells maps signed cell coordinates to a unique identifier: zigzag
// encoding to non-negative integers, then Szudzik's pairing function.
func pairCells(cellX, cellY int64) int64 {
	var a, b int64
	if cellX >= 0 {
		a = 2 * cellX
	} else {
		a = -2*cellX - 1
	}
	if cellY >= 0 {
		b = 2 * cellY
	} else {
		b = -2*cellY - 1
	}

	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// RegionQuery returns indices of all points within eps of points[idx],
// including idx itself. Distance is 2-D Euclidean and the boundary is
// inclusive.
func (si *SpatialIndex) RegionQuery(points []Point2, idx int, eps float64) []int {
	p := points[idx]
	neighbors := []int{}
	eps2 := eps * eps // Use squared distance to avoid sqrt

	cellX, cellY := si.cellCoords(p.X, p.Y)

	// Search 3x3 neighborhood of cells
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, candidateIdx := range si.Grid[pairCells(cellX+dx, cellY+dy)] {
				candidate := points[candidateIdx]
				ddx := candidate.X - p.X
				ddy := candidate.Y - p.Y
				if ddx*ddx+ddy*ddy <= eps2 {
					neighbors = append(neighbors, candidateIdx)
				}
			}
		}
	}

	return neighbors
}

// DBSCANParams contains parameters for the DBSCAN clustering algorithm.
type DBSCANParams struct {
	Eps    float64 // Neighbourhood radius, standardized units
	MinPts int     // Neighbours (self included) required for a core point
}

// DefaultDBSCANParams returns the parameters used for presence windows.
func DefaultDBSCANParams() DBSCANParams {
	return DBSCANParams{
		Eps:    DefaultDBSCANEps,
		MinPts: DefaultDBSCANMinPts,
	}
}

// DBSCANResult labels every input point.
type DBSCANResult struct {
	Labels      []int  // cluster id per point, Noise for outliers
	Core        []bool // whether the point is a core point
	NumClusters int    // cluster ids run from 0 to NumClusters-1
}

// DBSCAN performs density-based clustering on 2-D points.
//
// Cluster ids are assigned in input order: cluster 0 grows from the first
// core point, cluster 1 from the first core point not reached by cluster 0,
// and so on. A border point reachable from several clusters joins the one
// with the lowest id. The result depends only on the input order, never on
// map iteration or randomness.
func DBSCAN(points []Point2, params DBSCANParams) DBSCANResult {
	n := len(points)
	res := DBSCANResult{
		Labels: make([]int, n),
		Core:   make([]bool, n),
	}
	if n == 0 {
		return res
	}

	// Build spatial index (required for performance)
	spatialIndex := NewSpatialIndex(params.Eps)
	spatialIndex.Build(points)

	neighbors := make([][]int, n)
	for i := range points {
		neighbors[i] = spatialIndex.RegionQuery(points, i, params.Eps)
		res.Core[i] = len(neighbors[i]) >= params.MinPts
		res.Labels[i] = Noise
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if res.Labels[i] != Noise || !res.Core[i] {
			continue
		}
		expandCluster(res.Labels, res.Core, neighbors, i, clusterID)
		clusterID++
	}
	res.NumClusters = clusterID

	return res
}

// expandCluster grows clusterID outward from a core seed. Only core points
// propagate membership; border points are absorbed but not expanded.
func expandCluster(labels []int, core []bool, neighbors [][]int, seed, clusterID int) {
	labels[seed] = clusterID

	// Use a queue-based approach for expansion
	queue := []int{seed}
	for j := 0; j < len(queue); j++ {
		idx := queue[j]
		if !core[idx] {
			continue
		}
		for _, nb := range neighbors[idx] {
			if labels[nb] != Noise {
				continue // Already claimed
			}
			labels[nb] = clusterID
			queue = append(queue, nb)
		}
	}
}

// Sizes returns the member count of each cluster, indexed by cluster id.
func (r DBSCANResult) Sizes() []int {
	sizes := make([]int, r.NumClusters)
	for _, l := range r.Labels {
		if l != Noise {
			sizes[l]++
		}
	}
	return sizes
}

// Largest returns the cluster with the most members. Ties go to the lowest
// cluster id, i.e. the cluster whose first core point comes earliest in the
// input. ok is false when every point is noise.
func (r DBSCANResult) Largest() (id, size int, ok bool) {
	id = Noise
	for cid, s := range r.Sizes() {
		if s > size {
			id, size = cid, s
		}
	}
	return id, size, id != Noise
}
