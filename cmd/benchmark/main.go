package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docchat/config"
	"docchat/internal/adapter/embedding"
	"docchat/internal/adapter/store"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding docchat.yaml and the session data")
	session := flag.String("session", "", "Session id (default from config)")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\"")
		fmt.Println("\nReports, for one query against a session's index:")
		fmt.Println("  1. Index shape (entries, dimension, metric, model)")
		fmt.Println("  2. Query embedding and search latency")
		fmt.Println("  3. Similarity of the top matches")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *session != "" {
		cfg.Session.ID = *session
	}
	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(*dir, cfg.DataDir)
	}

	dbPath := config.IndexDBPath(cfg.DataDir, cfg.Session.ID)
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "No index for session %q at %s - run 'docchat load' first\n", cfg.Session.ID, dbPath)
		os.Exit(1)
	}

	metric, err := store.ParseMetric(cfg.Retrieve.Metric)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	st, err := store.Open(dbPath, store.Options{Metric: metric})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	info, err := st.GetSchemaInfo()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading index info: %v\n", err)
		os.Exit(1)
	}

	embedder, err := embedding.New(cfg.Embedding, cfg.HTTP, cfg.Retry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}
	if info.EmbeddingModel != "" && info.EmbeddingModel != embedder.ModelName() {
		fmt.Fprintf(os.Stderr, "Index was built with %s but config uses %s\n", info.EmbeddingModel, embedder.ModelName())
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Session:   %s\n", cfg.Session.ID)
	fmt.Printf("Entries:   %d\n", st.Count())
	fmt.Printf("Dimension: %d\n", st.Dimension())
	fmt.Printf("Metric:    %s\n", metric)
	fmt.Printf("Model:     %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	ctx := context.Background()
	start := time.Now()
	queryVec, err := embedder.EmbedQuery(ctx, *query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}
	embedTime := time.Since(start)

	start = time.Now()
	results, err := st.Query(ctx, queryVec, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	searchTime := time.Since(start)

	if len(results) == 0 {
		fmt.Println("Index is empty.")
		return
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := []rune(strings.ReplaceAll(r.Chunk.Text, "\n", " "))
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}

		totalScore += r.Score

		fmt.Printf("%d. [%s %.3f] %s", i+1, rating(r.Score), r.Score, r.Chunk.Source)
		if r.Chunk.Section > 0 {
			fmt.Printf(" (section %d)", r.Chunk.Section)
		}
		fmt.Printf("\n   %s\n\n", string(preview))
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Query embedding:    %s\n", embedTime.Round(time.Millisecond))
	fmt.Printf("  Search:             %s\n", searchTime.Round(time.Microsecond))
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - retrieval looks relevant")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - check the chunk size or the embedding model")
	}
}

// rating buckets a similarity; only meaningful for the cosine metric.
func rating(score float64) string {
	switch {
	case score > 0.7:
		return "HIGH"
	case score > 0.5:
		return "GOOD"
	case score > 0.3:
		return "OK"
	}
	return "LOW"
}
