package clustervec_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hupe1980/clustervec"
	"github.com/hupe1980/clustervec/metric"
)

// Example demonstrates inserting vectors and searching for the most similar.
func Example() {
	ctx := context.Background()

	cv, err := clustervec.New[string]()
	if err != nil {
		log.Fatal(err)
	}

	docs := map[string][]float32{
		"go":     {1, 0, 0},
		"gopher": {0.95, 0.05, 0},
		"cat":    {0, 1, 0},
	}
	for name, vec := range docs {
		if _, err := cv.Insert(ctx, vec, name); err != nil {
			log.Fatal(err)
		}
	}

	results, err := cv.Search(ctx, []float32{1, 0, 0}, clustervec.WithLimit(1))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(results[0].Metadata)
	// Output: go
}

// Example_clustering demonstrates how dissimilar vectors end up in separate
// clusters.
func Example_clustering() {
	ctx := context.Background()

	cv, err := clustervec.New[string](
		clustervec.WithClusterThreshold(0.99),
	)
	if err != nil {
		log.Fatal(err)
	}

	for _, vec := range [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		if _, err := cv.Insert(ctx, vec, ""); err != nil {
			log.Fatal(err)
		}
	}

	stats := cv.Stats(ctx)
	fmt.Printf("vectors=%d clusters=%d\n", stats.VectorCount, stats.ClusterCount)
	// Output: vectors=3 clusters=3
}

// Example_snapshot demonstrates saving a store to disk and restoring it.
func Example_snapshot() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "clustervec")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	cv, err := clustervec.New[string](
		clustervec.WithCompression(clustervec.CompressionZSTD),
	)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := cv.Insert(ctx, []float32{0.1, 0.2, 0.3}, "hello"); err != nil {
		log.Fatal(err)
	}

	path := filepath.Join(dir, "store.cvec")
	if err := cv.SaveToFile(ctx, path); err != nil {
		log.Fatal(err)
	}

	restored, err := clustervec.NewFromFile[string](path)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(restored.Len())
	// Output: 1
}

// Example_euclidean demonstrates using the Euclidean metric family, where
// similarity is derived from raw distance.
func Example_euclidean() {
	ctx := context.Background()

	cv, err := clustervec.New[string](
		clustervec.WithSimilarity(metric.Euclidean()),
		clustervec.WithClusterThreshold(0.5),
	)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := cv.Insert(ctx, []float32{0, 0}, "origin"); err != nil {
		log.Fatal(err)
	}

	results, err := cv.Search(ctx, []float32{0.3, 0.4}, clustervec.WithLimit(1))
	if err != nil {
		log.Fatal(err)
	}

	// Distance 0.5 maps to similarity 1/(1+0.5).
	fmt.Printf("%s %.2f\n", results[0].Metadata, results[0].Score)
	// Output: origin 0.67
}
