// Package report сохраняет сравнительные отчёты и возвращает ссылку на них.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/senyabanana/rfq-service/internal/models"
)

// Renderer - внешняя отрисовка сравнительного отчёта.
type Renderer interface {
	RenderComparisonReport(ctx context.Context, report *models.ComparisonReport) (string, error)
}

// FileRenderer записывает отчёт в JSON-файл и возвращает его URL.
type FileRenderer struct {
	Dir     string
	BaseURL string
}

// NewFileRenderer создаёт новый экземпляр FileRenderer.
func NewFileRenderer(dir, baseURL string) *FileRenderer {
	return &FileRenderer{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// RenderComparisonReport сохраняет отчёт в файл <id>.json.
func (r *FileRenderer) RenderComparisonReport(ctx context.Context, report *models.ComparisonReport) (string, error) {
	if report == nil || report.ID == "" {
		return "", errors.New("report id is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	name := report.ID + ".json"
	if err := os.WriteFile(filepath.Join(r.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return r.BaseURL + "/" + name, nil
}
