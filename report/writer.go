package report

import (
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/taxitip/config"
	"github.com/YuminosukeSato/taxitip/pkg/errors"
	"github.com/YuminosukeSato/taxitip/pkg/log"
)

// File names written under the report directory.
const (
	PlotFile     = "cv_curve.png"
	WorkbookFile = "tipselect.xlsx"
	SummaryFile  = "summary.yaml"
)

// WriteAll writes the artifacts enabled in cfg under cfg.Dir and returns
// their paths.
func WriteAll(cfg config.ReportConfig, s Summary, logger log.Logger) ([]string, error) {
	if logger == nil {
		logger = log.GetLogger()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create report dir %s", cfg.Dir)
	}
	var written []string
	writeFile := func(name string, fn func(path string) error) error {
		path := filepath.Join(cfg.Dir, name)
		if err := fn(path); err != nil {
			return err
		}
		written = append(written, path)
		logger.Info("report written", "path", path)
		return nil
	}

	if cfg.Summary {
		err := writeFile(SummaryFile, func(path string) error {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := WriteYAML(f, s); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
		if err != nil {
			return written, err
		}
	}
	if cfg.Plot {
		err := writeFile(PlotFile, func(path string) error {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := WritePlot(f, s.CV); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
		if err != nil {
			return written, err
		}
	}
	if cfg.Workbook {
		if err := writeFile(WorkbookFile, func(path string) error { return WriteWorkbook(path, s) }); err != nil {
			return written, err
		}
	}
	return written, nil
}
