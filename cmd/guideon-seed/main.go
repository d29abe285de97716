package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	firestorestore "github.com/PabloGalante/guideon/internal/adapters/storage/firestore"
	"github.com/PabloGalante/guideon/internal/domain"
	"github.com/PabloGalante/guideon/internal/observability"
	"github.com/PabloGalante/guideon/internal/seed"
)

func main() {
	file := flag.String("file", "", "YAML catalog with quotes and verses")
	project := flag.String("project", os.Getenv("FIREBASE_PROJECT_ID"), "Firebase project id")
	dryRun := flag.Bool("dry-run", false, "parse and validate only")
	timeout := flag.Duration("timeout", 2*time.Minute, "import timeout")
	flag.Parse()

	log := observability.Init(os.Getenv("LOG_LEVEL"))

	if err := run(*file, *project, *dryRun, *timeout); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(file, project string, dryRun bool, timeout time.Duration) error {
	if file == "" {
		return fmt.Errorf("-file is required")
	}
	log := observability.Logger()

	items, err := seed.LoadFile(file)
	if err != nil {
		return err
	}
	quotes, verses := 0, 0
	for _, it := range items {
		if it.Kind == domain.KindVerse {
			verses++
		} else {
			quotes++
		}
	}
	log.Info("catalog parsed", "file", file, "quotes", quotes, "verses", verses)
	if dryRun {
		return nil
	}
	if project == "" {
		return fmt.Errorf("-project or FIREBASE_PROJECT_ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := firestorestore.NewStore(ctx, project)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ImportItems(ctx, items)
	if err != nil {
		return err
	}
	log.Info("catalog imported", "project", project, "written", n)
	return nil
}
