// Package main provides the phonecache tool for inspecting and migrating the phone lookup cache.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lwilliamskeiter/leads-reformat/internal/cache"
	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/internal/formatter"
	"github.com/lwilliamskeiter/leads-reformat/internal/models"
	"github.com/lwilliamskeiter/leads-reformat/pkg/utils"
)

var errUsage = errors.New("usage")

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults are used when empty)")
	list := flag.Bool("list", false, "List every cached record")
	get := flag.String("get", "", "Show the cached record for one number")
	export := flag.String("export", "", "Write every cached record to a JSON file")
	importPath := flag.String("import", "", "Merge records from a JSON file into the cache")
	flag.Parse()

	cfg := config.Default()

	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		cfg = loaded
	}

	err := run(context.Background(), cfg.Cache, *list, *get, *export, *importPath)
	if errors.Is(err, errUsage) {
		fmt.Println("Usage: phonecache [-config file] -list | -get <digits> | -export <out.json> | -import <in.json>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.CacheConfig, list bool, get, export, importPath string) error {
	if !list && get == "" && export == "" && importPath == "" {
		return errUsage
	}

	store, err := cache.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s cache: %w", cfg.Backend, err)
	}

	return cache.With(ctx, store, func(c *cache.Cache) error {
		fmt.Printf("📂 %s cache: %d records\n", cfg.Backend, c.Len())

		if importPath != "" {
			n, err := importRecords(ctx, c, importPath)
			if err != nil {
				return err
			}

			fmt.Printf("📥 Imported %d records from %s\n", n, importPath)
		}

		if get != "" {
			digits := utils.DigitsOnly(get)
			if len(digits) == 11 && digits[0] == '1' {
				digits = digits[1:]
			}

			rec, ok := c.Get(digits)
			if !ok {
				return fmt.Errorf("%s is not cached", digits)
			}

			return printJSON(rec)
		}

		if list {
			fmt.Print(formatter.Markdown(recordTable(c), 0))
		}

		if export != "" {
			if err := exportRecords(c, export); err != nil {
				return err
			}

			fmt.Printf("✅ Exported %d records to %s\n", c.Len(), export)
		}

		return nil
	})
}

func recordTable(c *cache.Cache) *models.Table {
	tbl := models.NewTable(append([]string{"Key"}, models.RecordFields...))
	snap := c.Snapshot()

	for _, key := range c.Keys() {
		tbl.Rows = append(tbl.Rows, append(models.Row{key}, snap[key].Values()...))
	}

	return tbl
}

func importRecords(ctx context.Context, c *cache.Cache, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read import file: %w", err)
	}

	var records map[string]models.ValidationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("failed to parse import file: %w", err)
	}

	n := 0

	for key, rec := range records {
		if rec.HasError() || rec.IsEmpty() {
			continue
		}

		if err := c.Put(ctx, key, rec); err != nil {
			return n, err
		}

		n++
	}

	return n, nil
}

func exportRecords(c *cache.Cache, path string) error {
	data, err := json.MarshalIndent(c.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	return nil
}

func printJSON(rec models.ValidationRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))

	return nil
}
