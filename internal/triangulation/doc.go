// Package triangulation reconstructs 3D points lit by a laser from their image
// coordinates.
//
// Image points are back-projected through the inverted camera intrinsics into
// unit rays leaving the camera, and each ray is intersected with the laser
// described by an origin (Z fixed at 0) and an axis direction. The solver is a
// closed form and never clamps: rays that are (nearly) parallel to the laser
// axis produce a denominator close to zero, which is returned to the caller as
// a degeneracy signal alongside the reconstructed points. An exact zero
// denominator yields NaN or ±Inf coordinates.
//
// Point sets are gonum matrices with one point per column: image points are
// 3×N homogeneous pixel coordinates (last row 1) and world points are 3×N
// metric coordinates in the camera frame.
package triangulation
