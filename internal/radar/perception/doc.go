// Package perception turns decoded frames into per-window cluster results.
//
// Responsibilities: pooling points over fixed windows of frames, z-score
// standardization, DBSCAN clustering and selection of the dominant cluster.
// Key types: Point2, DBSCANParams, DBSCANResult, WindowClusterer, WindowResult.
//
// Dependency rule: perception may depend on parse, never on classify.
package perception
