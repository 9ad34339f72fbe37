package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/use-agent/sneakerscope/models"
)

// resolveFormat picks the output format from the flag, then the output file
// extension, and falls back to JSON.
func resolveFormat(flag, file string) (string, error) {
	format := strings.ToLower(flag)
	if format == "" && file != "" {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".csv":
			format = "csv"
		case ".txt":
			format = "text"
		}
	}
	if format == "" {
		format = "json"
	}
	switch format {
	case "json", "csv", "text":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want json, csv or text)", flag)
	}
}

func writeSneakers(w io.Writer, format string, sneakers []models.Sneaker) error {
	switch format {
	case "csv":
		return writeCSV(w, sneakers)
	case "text":
		return writeText(w, sneakers)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(models.SneakersResponse{Sneakers: sneakers})
	}
}

func writeCSV(w io.Writer, sneakers []models.Sneaker) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "brand", "price", "image_url", "product_url", "site", "available_sizes"}); err != nil {
		return err
	}
	for _, s := range sneakers {
		record := []string{
			s.Name,
			s.Brand,
			strconv.FormatFloat(s.Price, 'f', 2, 64),
			s.ImageURL,
			s.ProductURL,
			s.SiteName(),
			strings.Join(s.AvailableSizes, ";"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeText(w io.Writer, sneakers []models.Sneaker) error {
	for i, s := range sneakers {
		if _, err := fmt.Fprintf(w, "%2d. %s | %s | %.2f\n    %s\n", i+1, s.Name, s.Brand, s.Price, s.ProductURL); err != nil {
			return err
		}
	}
	return nil
}
