package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/serialize"
)

// openWriters opens one output file per requested format under outputDir,
// layering gzip and then password-derived encryption around each sink in
// that order (compress, then encrypt), and returns the serialize.PatientWriter
// set, the paths that were created, and a single func that closes everything
// in reverse-open order.
func (e *Engine) openWriters(outputDir string, s *models.ResolvedScenario) ([]serialize.PatientWriter, []string, func() error, error) {
	formats := s.OutputFormats
	if len(formats) == 0 {
		formats = []string{"ndjson"}
	}

	var writers []serialize.PatientWriter
	var paths []string
	var closers []io.Closer

	closeAll := func() error {
		var firstErr error
		for i := len(writers) - 1; i >= 0; i-- {
			if err := writers[i].Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, format := range formats {
		name := fmt.Sprintf("patients.%s", extensionFor(format))
		if s.Compression {
			name += ".gz"
		}
		if s.EncryptionPassword != "" {
			name += ".enc"
		}
		path := filepath.Join(outputDir, name)

		f, err := os.Create(path)
		if err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("creating %s: %w", path, err)
		}
		paths = append(paths, path)

		// Each layer cascades Close into the one beneath it, so only the
		// outermost wrapper for a file is tracked in closers.
		var sink io.Writer = f
		var outer io.Closer = f

		if s.Compression {
			gw := serialize.WrapGzip(sink, outer)
			sink = gw
			outer = gw
		}

		if s.EncryptionPassword != "" {
			ew, err := serialize.WrapEncryption(sink, s.EncryptionPassword)
			if err != nil {
				closeAll()
				return nil, nil, nil, fmt.Errorf("wrapping encryption for %s: %w", path, err)
			}
			sink = ew
			outer = ew
		}
		closers = append(closers, outer)

		w, err := serialize.NewWriter(format, sink)
		if err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("building writer for %s: %w", format, err)
		}
		writers = append(writers, w)
	}

	return writers, paths, closeAll, nil
}

func extensionFor(format string) string {
	switch format {
	case "json":
		return "json"
	case "csv":
		return "csv"
	default:
		return "ndjson"
	}
}
