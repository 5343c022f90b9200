// Package clustervec is an embedded, in-memory vector store that organizes
// vectors into similarity clusters as they arrive.
//
// Every inserted vector joins the cluster whose center it is most similar
// to, or spawns a new cluster when nothing is similar enough. Clusters keep
// a center and a radius up to date as members come and go, and search uses
// the cluster structure to prune the scan to the most promising clusters.
//
// # Basic Usage
//
//	cv, err := clustervec.New[string]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	id, err := cv.Insert(ctx, []float32{0.1, 0.2, 0.3}, "hello world")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := cv.Search(ctx, []float32{0.1, 0.2, 0.3}, clustervec.WithLimit(5))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Stores are snapshottable: SaveToFile writes a self-describing binary
// snapshot and NewFromFile restores it, including cluster structure and ID
// counters.
package clustervec
