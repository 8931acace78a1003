// Package spherenn finds nearest neighbours among directions on the unit sphere.
//
// A direction is an azimuth and an elevation in degrees. Distances are the
// angle between two directions, in radians within [0, π].
//
//	sky := []spherenn.Point{
//	    spherenn.NewPoint(0, 0),
//	    spherenn.NewPoint(90, 0),
//	    spherenn.NewPoint(0, 90),
//	}
//	idx, _ := spherenn.BuildIndex(sky)
//	n, _ := idx.Nearest(spherenn.NewPoint(80, 10))
//	fmt.Println(n.Index, n.Distance)
//
// Every index answer can be cross-checked against brute force:
//
//	rep, _ := spherenn.Validate(ctx, sky, queries, spherenn.WithEngine(spherenn.EngineVPTree))
//	fmt.Println(rep.Passed(), rep.MaxDeviation)
package spherenn
